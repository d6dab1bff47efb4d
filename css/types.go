package css

import "strings"

// Declaration is a single property:value pair.
type Declaration struct {
	Property string
	Value    string
}

// Declarations is an ordered list of declarations. Order is insertion order;
// writing an already-present property overwrites its value in place.
type Declarations []Declaration

// Set upserts a property value, keeping the position of the first write.
func (d Declarations) Set(property, value string) Declarations {
	for i := range d {
		if d[i].Property == property {
			d[i].Value = value
			return d
		}
	}
	return append(d, Declaration{Property: property, Value: value})
}

// Get returns the value for a property.
func (d Declarations) Get(property string) (string, bool) {
	for i := range d {
		if d[i].Property == property {
			return d[i].Value, true
		}
	}
	return "", false
}

// Merge layers other onto d, later writes overwriting same-named properties.
func (d Declarations) Merge(other Declarations) Declarations {
	for _, decl := range other {
		d = d.Set(decl.Property, decl.Value)
	}
	return d
}

// Clone returns an independent copy.
func (d Declarations) Clone() Declarations {
	if d == nil {
		return nil
	}
	out := make(Declarations, len(d))
	copy(out, d)
	return out
}

// String renders declarations as inline style attribute text. Every
// declaration is terminated with a semicolon: "fill:red;stroke:blue;".
func (d Declarations) String() string {
	if len(d) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, decl := range d {
		sb.WriteString(decl.Property)
		sb.WriteByte(':')
		sb.WriteString(decl.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// Rule is a class selector with its ordered declarations.
type Rule struct {
	Class        string
	Declarations Declarations
}

// Stylesheet holds class rules in the order they were first encountered.
type Stylesheet struct {
	Rules    []Rule
	Warnings []string

	index map[string]int
}

// Empty reports whether the stylesheet has no usable rules.
func (s *Stylesheet) Empty() bool {
	return s == nil || len(s.Rules) == 0
}

// Class returns the declarations for a class name.
func (s *Stylesheet) Class(name string) (Declarations, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.Rules[i].Declarations, true
}

// Classes returns class names in first-encounter order.
func (s *Stylesheet) Classes() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Rules))
	for i, r := range s.Rules {
		names[i] = r.Class
	}
	return names
}

// add appends a rule, folding duplicate class declarations into the earlier
// rule so that layering during application keeps left-to-right scan order.
func (s *Stylesheet) add(class string, decls Declarations) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[class]; ok {
		s.Rules[i].Declarations = append(s.Rules[i].Declarations, decls...)
		return
	}
	s.index[class] = len(s.Rules)
	s.Rules = append(s.Rules, Rule{Class: class, Declarations: decls})
}
