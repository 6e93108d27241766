package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"
)

// TypeManifest is the expected shape of one registered type.
type TypeManifest struct {
	Name             string
	Constructors     [][]string
	Destructor       *bool
	Properties       []Member
	StaticProperties []Member
	Methods          []Function
	StaticFunctions  []Function
	Casts            []Cast
	Parents          []string
	Pos              token.Pos
}

// Member is a named property with its declared type.
type Member struct {
	Name string
	Type string
}

// Function is a named callable. An empty Returns means no return value.
type Function struct {
	Name    string
	Params  []string
	Returns string
}

// Cast is an expected edge and the strategies it must support.
type Cast struct {
	Destination string
	Kinds       []string
}

// CompileError reports a malformed manifest value.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile extracts every manifest under the "type" field of v, in
// declaration order.
func Compile(v cue.Value) ([]TypeManifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	typesVal := v.LookupPath(cue.ParsePath("type"))
	if !typesVal.Exists() {
		return nil, &CompileError{Field: "type", Message: "no types declared", Pos: v.Pos()}
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []TypeManifest
	for iter.Next() {
		m, err := CompileType(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// CompileType parses one type manifest.
func CompileType(name string, v cue.Value) (*TypeManifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	m := &TypeManifest{Name: name, Pos: v.Pos()}

	var err error
	if m.Constructors, err = parseConstructors(v); err != nil {
		return nil, err
	}
	if d := v.LookupPath(cue.ParsePath("destructor")); d.Exists() {
		b, err := d.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.Destructor = &b
	}
	if m.Properties, err = parseMembers(v, "properties"); err != nil {
		return nil, err
	}
	if m.StaticProperties, err = parseMembers(v, "static_properties"); err != nil {
		return nil, err
	}
	if m.Methods, err = parseFunctions(v, "methods"); err != nil {
		return nil, err
	}
	if m.StaticFunctions, err = parseFunctions(v, "static_functions"); err != nil {
		return nil, err
	}
	if m.Casts, err = parseCasts(v); err != nil {
		return nil, err
	}
	if p := v.LookupPath(cue.ParsePath("parents")); p.Exists() {
		if m.Parents, err = parseStrings(p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func parseConstructors(v cue.Value) ([][]string, error) {
	cv := v.LookupPath(cue.ParsePath("constructors"))
	if !cv.Exists() {
		return nil, nil
	}
	iter, err := cv.List()
	if err != nil {
		return nil, &CompileError{Field: "constructors", Message: "must be a list of parameter lists", Pos: cv.Pos()}
	}
	var out [][]string
	for iter.Next() {
		params, err := parseStrings(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, params)
	}
	return out, nil
}

func parseMembers(v cue.Value, field string) ([]Member, error) {
	mv := v.LookupPath(cue.ParsePath(field))
	if !mv.Exists() {
		return nil, nil
	}
	iter, err := mv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Member
	for iter.Next() {
		typ, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: "property type must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, Member{Name: iter.Label(), Type: typ})
	}
	return out, nil
}

func parseFunctions(v cue.Value, field string) ([]Function, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Function
	for iter.Next() {
		fn := Function{Name: iter.Label(), Params: []string{}}
		body := iter.Value()
		if p := body.LookupPath(cue.ParsePath("params")); p.Exists() {
			if fn.Params, err = parseStrings(p); err != nil {
				return nil, err
			}
		}
		if r := body.LookupPath(cue.ParsePath("returns")); r.Exists() {
			if fn.Returns, err = r.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		out = append(out, fn)
	}
	return out, nil
}

func parseCasts(v cue.Value) ([]Cast, error) {
	cv := v.LookupPath(cue.ParsePath("casts"))
	if !cv.Exists() {
		return nil, nil
	}
	iter, err := cv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Cast
	for iter.Next() {
		kinds, err := parseStrings(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, Cast{Destination: iter.Label(), Kinds: kinds})
	}
	return out, nil
}

// parseStrings reads a list of strings. Never returns nil on success.
func parseStrings(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: pathOf(v), Message: "must be a list of strings", Pos: v.Pos()}
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: pathOf(v), Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func pathOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return "value"
	}
	return sels[len(sels)-1].String()
}
