package data

import "errors"

var (
	// ErrKeyAllDigits rejects binding names composed entirely of digits,
	// which signal a caller passing a positional value where a name belongs.
	ErrKeyAllDigits = errors.New("binding name is all digits")

	// ErrKeyEmpty rejects empty binding names.
	ErrKeyEmpty = errors.New("binding name is empty")

	// ErrKeyInvalid rejects binding names that are not identifiers.
	ErrKeyInvalid = errors.New("binding name is not a valid identifier")

	// ErrValueIsHandle rejects raw I/O handles as binding values.
	ErrValueIsHandle = errors.New("binding value is an open I/O handle")
)
