package schema

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Meta holds numeric and string constraints attached to a type through
// Annotate. Setters return copies so a Meta can be shared between schemas.
type Meta struct {
	gt, ge, lt, le *float64
	multipleOf     *float64
	pattern        string
	patternRe      *regexp.Regexp
	minLength      *int
	maxLength      *int
	title          string
	description    string
}

// NewMeta creates an empty constraint holder.
func NewMeta() *Meta {
	return &Meta{}
}

func (m *Meta) clone() *Meta {
	c := *m
	return &c
}

// Gt constrains numbers to be strictly greater than v.
func (m *Meta) Gt(v float64) *Meta {
	c := m.clone()
	c.gt = &v
	return c
}

// Ge constrains numbers to be greater than or equal to v.
func (m *Meta) Ge(v float64) *Meta {
	c := m.clone()
	c.ge = &v
	return c
}

// Lt constrains numbers to be strictly less than v.
func (m *Meta) Lt(v float64) *Meta {
	c := m.clone()
	c.lt = &v
	return c
}

// Le constrains numbers to be less than or equal to v.
func (m *Meta) Le(v float64) *Meta {
	c := m.clone()
	c.le = &v
	return c
}

// MultipleOf constrains numbers to be multiples of v.
func (m *Meta) MultipleOf(v float64) *Meta {
	c := m.clone()
	c.multipleOf = &v
	return c
}

// Pattern constrains strings to match the regular expression.
func (m *Meta) Pattern(expr string) *Meta {
	c := m.clone()
	c.pattern = expr
	c.patternRe = regexp.MustCompile(expr)
	return c
}

// MinLength constrains string length from below.
func (m *Meta) MinLength(n int) *Meta {
	c := m.clone()
	c.minLength = &n
	return c
}

// MaxLength constrains string length from above.
func (m *Meta) MaxLength(n int) *Meta {
	c := m.clone()
	c.maxLength = &n
	return c
}

// Title sets the schema title used in JSON-Schema output.
func (m *Meta) Title(s string) *Meta {
	c := m.clone()
	c.title = s
	return c
}

// Description sets the schema description used in JSON-Schema output.
func (m *Meta) Description(s string) *Meta {
	c := m.clone()
	c.description = s
	return c
}

// MetaArg is one explicitly-set constraint, exposed for source generation and
// JSON-Schema rendering.
type MetaArg struct {
	Name  string
	Value any
}

// Args lists the constraints actually set, in canonical order.
func (m *Meta) Args() []MetaArg {
	var args []MetaArg
	add := func(name string, v any) {
		args = append(args, MetaArg{Name: name, Value: v})
	}
	if m.gt != nil {
		add("Gt", *m.gt)
	}
	if m.ge != nil {
		add("Ge", *m.ge)
	}
	if m.lt != nil {
		add("Lt", *m.lt)
	}
	if m.le != nil {
		add("Le", *m.le)
	}
	if m.multipleOf != nil {
		add("MultipleOf", *m.multipleOf)
	}
	if m.pattern != "" {
		add("Pattern", m.pattern)
	}
	if m.minLength != nil {
		add("MinLength", *m.minLength)
	}
	if m.maxLength != nil {
		add("MaxLength", *m.maxLength)
	}
	if m.title != "" {
		add("Title", m.title)
	}
	if m.description != "" {
		add("Description", m.description)
	}
	return args
}

// Equals compares the set constraints of two holders.
func (m *Meta) Equals(other *Meta) bool {
	if other == nil {
		return false
	}
	a, b := m.Args(), other.Args()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

func (m *Meta) String() string {
	return fmt.Sprintf("meta%v", m.Args())
}

// Check validates a converted value against the constraints. Numeric
// constraints apply to numbers, length and pattern constraints to strings.
func (m *Meta) Check(v any) error {
	if n, ok := asFloat(v); ok {
		if m.gt != nil && !(n > *m.gt) {
			return validationErrf("", "expected value > %v, got %v", *m.gt, n)
		}
		if m.ge != nil && !(n >= *m.ge) {
			return validationErrf("", "expected value >= %v, got %v", *m.ge, n)
		}
		if m.lt != nil && !(n < *m.lt) {
			return validationErrf("", "expected value < %v, got %v", *m.lt, n)
		}
		if m.le != nil && !(n <= *m.le) {
			return validationErrf("", "expected value <= %v, got %v", *m.le, n)
		}
		if m.multipleOf != nil {
			q := n / *m.multipleOf
			if q != float64(int64(q)) {
				return validationErrf("", "expected multiple of %v, got %v", *m.multipleOf, n)
			}
		}
	}
	if s, ok := v.(string); ok {
		length := utf8.RuneCountInString(s)
		if m.minLength != nil && length < *m.minLength {
			return validationErrf("", "expected length >= %d, got %d", *m.minLength, length)
		}
		if m.maxLength != nil && length > *m.maxLength {
			return validationErrf("", "expected length <= %d, got %d", *m.maxLength, length)
		}
		if m.patternRe != nil && !m.patternRe.MatchString(s) {
			return validationErrf("", "expected string matching %q", m.pattern)
		}
	}
	return nil
}

// TitleValue returns the configured title.
func (m *Meta) TitleValue() string { return m.title }

// DescriptionValue returns the configured description.
func (m *Meta) DescriptionValue() string { return m.description }
