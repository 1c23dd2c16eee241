// Package schema contains the contracts shared across contactdesk packages:
// conversation turns, the completion service interface and the capability
// provider interface. Concrete implementations live in their own packages.
package schema

import "context"

// ParamType is the semantic type of an operation parameter as exposed to the
// model. Values match JSON Schema primitive type names.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// Valid reports whether t is one of the known parameter types.
func (t ParamType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// Param describes one operation parameter.
type Param struct {
	Name        string
	Description string
	Type        ParamType
	Items       ParamType // element type when Type is TypeArray
	Optional    bool
}

// InvokeFunc executes an operation. The returned value is serialised to JSON
// and fed back into the conversation as the tool result.
type InvokeFunc func(ctx context.Context, args Args) (any, error)

// Operation is one callable unit declared by a capability provider.
type Operation struct {
	Name        string
	Description string
	Params      []Param
	Invoke      InvokeFunc
}

// CapabilityProvider is a named source of operations. Providers are built by
// the host and handed to the registry; any state they hold is their own.
type CapabilityProvider interface {
	Name() string
	Description() string
	Operations() []Operation
}
