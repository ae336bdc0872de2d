package schema

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// suppressed marks cells the national publisher redacts for small counts.
var suppressed = map[string]bool{"": true, "-": true, "*": true, "**": true, "n/a": true}

// Coerce converts a raw source value to the field's declared type.
// Suppressed or empty cells coerce to nil regardless of type.
func (s *Schema) Coerce(f Field, raw string) (any, error) {
	v := strings.TrimSpace(raw)
	if suppressed[strings.ToLower(v)] {
		return nil, nil
	}

	switch f.Type {
	case TypeString:
		return v, nil
	case TypeInt:
		n, err := strconv.ParseInt(cleanNumber(v), 10, 64)
		if err != nil {
			return nil, eris.Errorf("schema: field %q: %q is not an integer", f.Name, raw)
		}
		return n, nil
	case TypeFloat:
		n, err := strconv.ParseFloat(cleanNumber(v), 64)
		if err != nil {
			return nil, eris.Errorf("schema: field %q: %q is not a number", f.Name, raw)
		}
		return n, nil
	}
	return nil, eris.Errorf("schema: field %q has unknown type %q", f.Name, f.Type)
}

// cleanNumber strips the thousands separators and percent signs common in
// hand-edited report cells.
func cleanNumber(v string) string {
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimSuffix(v, "%")
	return strings.TrimSpace(v)
}
