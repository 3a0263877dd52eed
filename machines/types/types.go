// Package types enumerates the available code-block machines.
package types

import "fmt"

// Type identifies a host machine implementation.
type Type string

const (
	Risor    Type = "risor"
	Starlark Type = "starlark"
	Expr     Type = "expr"
)

func (t Type) String() string {
	return string(t)
}

// Parse returns the machine type for name.
func Parse(name string) (Type, error) {
	switch Type(name) {
	case Risor, Starlark, Expr:
		return Type(name), nil
	default:
		return "", fmt.Errorf("unknown machine type: %q", name)
	}
}
