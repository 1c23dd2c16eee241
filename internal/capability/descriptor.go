package capability

import (
	"context"
	"fmt"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// Descriptor is the catalog entry for one operation. It is immutable once
// built; accessors return copies where the underlying value is mutable.
type Descriptor struct {
	qualifiedName string
	provider      string
	operation     string
	description   string
	params        []schema.Param
	invoke        schema.InvokeFunc
}

// QualifiedName joins provider and operation names, e.g. "Address.Validate".
func QualifiedName(provider, operation string) string {
	return provider + "." + operation
}

func (d *Descriptor) QualifiedName() string { return d.qualifiedName }
func (d *Descriptor) Provider() string      { return d.provider }
func (d *Descriptor) Operation() string     { return d.operation }
func (d *Descriptor) Description() string   { return d.description }

// Params returns the ordered parameter declarations.
func (d *Descriptor) Params() []schema.Param {
	out := make([]schema.Param, len(d.params))
	copy(out, d.params)
	return out
}

// Invoke validates args against the declared parameters and runs the bound
// provider function. Validation failures wrap ErrInvalidArguments.
func (d *Descriptor) Invoke(ctx context.Context, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(d.params, args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return d.invoke(ctx, schema.Args(args))
}

// Definition returns the serialized form handed to the completion service.
func (d *Descriptor) Definition() schema.ToolDefinition {
	properties := make(map[string]any, len(d.params))
	required := make([]string, 0, len(d.params))
	for _, p := range d.params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Type == schema.TypeArray {
			items := p.Items
			if items == "" {
				items = schema.TypeString
			}
			prop["items"] = map[string]any{"type": string(items)}
		}
		properties[p.Name] = prop
		if !p.Optional {
			required = append(required, p.Name)
		}
	}
	return schema.ToolDefinition{
		Name:        d.qualifiedName,
		Description: d.description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
