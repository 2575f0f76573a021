package capability

import (
	"fmt"
	"sort"
)

// FieldType is the JSON type a schema field accepts.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
)

// Field declares one argument of a capability schema.
type Field struct {
	Type        FieldType
	Description string
	Enum        []string
	Required    bool
}

// Schema declares the arguments a capability accepts. Validation rejects
// missing required fields, wrong types, unknown fields, and out-of-enum
// values; dispatch surfaces these as structured errors, never panics.
type Schema struct {
	Fields map[string]Field
}

// Validate checks args against the schema.
func (s Schema) Validate(args map[string]any) error {
	for name, field := range s.Fields {
		val, ok := args[name]
		if !ok {
			if field.Required {
				return fmt.Errorf("missing required argument %q", name)
			}
			continue
		}
		if err := field.check(name, val); err != nil {
			return err
		}
	}
	for name := range args {
		if _, ok := s.Fields[name]; !ok {
			return fmt.Errorf("unknown argument %q", name)
		}
	}
	return nil
}

func (f Field) check(name string, val any) error {
	switch f.Type {
	case FieldString:
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
		if len(f.Enum) > 0 {
			for _, allowed := range f.Enum {
				if str == allowed {
					return nil
				}
			}
			return fmt.Errorf("argument %q must be one of %v", name, f.Enum)
		}
	case FieldNumber:
		// JSON numbers decode as float64
		if _, ok := val.(float64); !ok {
			return fmt.Errorf("argument %q must be a number", name)
		}
	default:
		return fmt.Errorf("argument %q has unsupported schema type %q", name, f.Type)
	}
	return nil
}

// parameters renders the schema as the JSON-schema object the model
// provider expects in a function-tool declaration.
func (s Schema) parameters() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	var required []string

	for name, field := range s.Fields {
		prop := map[string]any{
			"type":        string(field.Type),
			"description": field.Description,
		}
		if len(field.Enum) > 0 {
			prop["enum"] = field.Enum
		}
		properties[name] = prop
		if field.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
