package template

import "errors"

// ErrTemplateMissing is returned when a template unit's backing resource
// cannot be loaded. Direct inclusion treats this as fatal; best-effort
// inclusion policies live with the caller, not here.
var ErrTemplateMissing = errors.New("template missing")
