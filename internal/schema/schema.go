// Package schema holds the canonical field schema used to reconcile
// table-rendered and chart-rendered records into one column set. The schema
// is read-only configuration: load it once at startup and pass it explicitly
// into the reconciler.
package schema

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Type is the declared type of a canonical field.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
)

// Field declares one canonical output column.
type Field struct {
	Name    string   `yaml:"name"`
	Type    Type     `yaml:"type"`
	Key     bool     `yaml:"key,omitempty"` // participates in the logical-row identity used for tie-breaks
	Aliases []string `yaml:"aliases,omitempty"`
}

// Schema maps source-side field names, through aliases, onto canonical
// fields. The alias mapping is many-to-one: one source name resolves to at
// most one canonical field.
type Schema struct {
	fields  []Field
	byAlias map[string]int
}

type schemaFile struct {
	Fields []Field `yaml:"fields"`
}

// New builds a Schema from field declarations, rejecting ambiguous aliases.
func New(fields []Field) (*Schema, error) {
	s := &Schema{fields: fields, byAlias: make(map[string]int)}
	for i, f := range fields {
		if f.Name == "" {
			return nil, eris.Errorf("schema: field %d has no name", i)
		}
		switch f.Type {
		case TypeString, TypeInt, TypeFloat:
		default:
			return nil, eris.Errorf("schema: field %q has unknown type %q", f.Name, f.Type)
		}
		names := append([]string{f.Name}, f.Aliases...)
		for _, a := range names {
			key := Normalize(a)
			if prev, ok := s.byAlias[key]; ok && prev != i {
				return nil, eris.Errorf("schema: alias %q maps to both %q and %q", a, fields[prev].Name, f.Name)
			}
			s.byAlias[key] = i
		}
	}
	return s, nil
}

// Load reads a schema declaration from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "schema: parse %s", path)
	}
	if len(file.Fields) == 0 {
		return nil, eris.Errorf("schema: %s declares no fields", path)
	}
	return New(file.Fields)
}

// Resolve maps an observed source-side field name to its canonical field.
func (s *Schema) Resolve(name string) (Field, bool) {
	i, ok := s.byAlias[Normalize(name)]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Fields returns the canonical fields in declaration order. Declaration
// order is the output column order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Keys returns the canonical names of the key fields, in declaration order.
func (s *Schema) Keys() []string {
	var out []string
	for _, f := range s.fields {
		if f.Key {
			out = append(out, f.Name)
		}
	}
	return out
}

// Normalize folds a field name to its matching form: lower case, spaces and
// hyphens as underscores, "(%)" as "per", remaining parentheses stripped.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "(%)", " per")
	n = strings.ReplaceAll(n, "(", "")
	n = strings.ReplaceAll(n, ")", "")
	n = strings.ReplaceAll(n, "-", " ")
	n = strings.Join(strings.Fields(n), "_")
	return n
}
