package ir

import "fmt"

// Schema normalises positional and keyword call arguments into the
// positional order a Graph's Inputs expect. The `self` argument, if the
// graph originated from a method, has already been stripped by the time a
// Schema reaches here (RemoveSelfFromGraphInput keeps the schema in sync).
type Schema struct {
	ArgNames []string
	Defaults map[string]interface{}
}

// Normalize reorders args/kwargs into the schema's declared positional
// order. Positional args are taken first, left to right; any remaining
// parameters are filled from kwargs, falling back to a declared default.
// Returns an error if a required argument is missing from both.
func (s *Schema) Normalize(args []interface{}, kwargs map[string]interface{}) ([]interface{}, error) {
	if len(args) > len(s.ArgNames) {
		return nil, fmt.Errorf("ir: schema expects at most %d positional arguments, got %d", len(s.ArgNames), len(args))
	}
	out := make([]interface{}, len(s.ArgNames))
	copy(out, args)
	for i := len(args); i < len(s.ArgNames); i++ {
		name := s.ArgNames[i]
		if v, ok := kwargs[name]; ok {
			out[i] = v
			continue
		}
		if def, ok := s.Defaults[name]; ok {
			out[i] = def
			continue
		}
		return nil, fmt.Errorf("ir: schema missing required argument %q", name)
	}
	return out, nil
}

// StripSelf removes the leading `self` parameter name from the schema, if
// present. Called alongside RemoveSelfFromGraphInput so the schema stays
// in sync with the graph's input list.
func (s *Schema) StripSelf() {
	if len(s.ArgNames) > 0 && s.ArgNames[0] == "self" {
		s.ArgNames = s.ArgNames[1:]
	}
}
