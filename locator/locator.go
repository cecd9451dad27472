package locator

import (
	"slices"
	"strconv"
	"strings"
)

// SingleValueKey is reported by Unused when a single value was never read.
const SingleValueKey = "$singleValue"

type dimension struct {
	name    string
	value   string
	complex bool
}

// Locator is a parsed locator. Values are immutable; the record of which
// dimensions were read is not, so a Locator must not be shared between
// concurrent lookups.
type Locator struct {
	text   string
	single bool
	value  string
	dims   []dimension
	used   map[string]bool
	help   bool
}

// Empty returns a locator without a single value or dimensions.
func Empty() *Locator {
	return &Locator{used: map[string]bool{}}
}

// Text returns the text the locator was parsed from.
func (l *Locator) Text() string {
	return l.text
}

// IsEmpty reports whether the locator has neither a single value nor dimensions.
func (l *Locator) IsEmpty() bool {
	return !l.single && len(l.dims) == 0
}

// IsHelpRequested reports whether the locator is, or contains, "$help".
func (l *Locator) IsHelpRequested() bool {
	return l.help
}

// IsSingleValue reports whether the locator is a bare value.
func (l *Locator) IsSingleValue() bool {
	return l.single
}

// SingleValue returns the bare value and marks it used. It returns false for
// dimension locators.
func (l *Locator) SingleValue() (string, bool) {
	if !l.single {
		return "", false
	}
	l.used[SingleValueKey] = true
	return l.value, true
}

// SingleValueAsInt64 returns the bare value as an integer.
func (l *Locator) SingleValueAsInt64() (int64, error) {
	value, ok := l.SingleValue()
	if !ok {
		return 0, &DimensionError{Err: ErrInvalidValue}
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &DimensionError{Value: value, Err: ErrInvalidValue}
	}
	return n, nil
}

// DimensionsCount returns the number of dimensions, counting repeats.
func (l *Locator) DimensionsCount() int {
	return len(l.dims)
}

// DimensionNames returns distinct dimension names in order of first occurrence.
func (l *Locator) DimensionNames() []string {
	names := make([]string, 0, len(l.dims))
	for _, d := range l.dims {
		if !slices.Contains(names, d.name) {
			names = append(names, d.name)
		}
	}
	return names
}

// Has reports whether the dimension is present without marking it used.
func (l *Locator) Has(name string) bool {
	for _, d := range l.dims {
		if d.name == name {
			return true
		}
	}
	return false
}

// DimensionValues returns every value of the dimension in order and marks it used.
func (l *Locator) DimensionValues(name string) []string {
	var values []string
	for _, d := range l.dims {
		if d.name == name {
			values = append(values, d.value)
		}
	}
	if values != nil {
		l.used[name] = true
	}
	return values
}

// Dimension returns the value of a dimension expected at most once.
func (l *Locator) Dimension(name string) (string, bool, error) {
	values := l.DimensionValues(name)
	switch len(values) {
	case 0:
		return "", false, nil
	case 1:
		return values[0], true, nil
	default:
		return "", true, &DimensionError{Name: name, Err: ErrRepeatedDimension}
	}
}

// DimensionAsInt64 returns a dimension value parsed as an integer.
func (l *Locator) DimensionAsInt64(name string) (int64, bool, error) {
	value, ok, err := l.Dimension(name)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, true, &DimensionError{Name: name, Value: value, Err: ErrInvalidValue}
	}
	return n, true, nil
}

// DimensionAsBool reads a true/false/any dimension. The second result is false
// when the dimension is absent or "any", meaning no constraint.
func (l *Locator) DimensionAsBool(name string) (bool, bool, error) {
	value, ok, err := l.Dimension(name)
	if err != nil || !ok {
		return false, false, err
	}
	switch strings.ToLower(value) {
	case "true":
		return true, true, nil
	case "false":
		return false, true, nil
	case "any":
		return false, false, nil
	default:
		return false, false, &DimensionError{Name: name, Value: value, Err: ErrInvalidValue}
	}
}

// Nested parses every value of the dimension as a locator.
func (l *Locator) Nested(name string) ([]*Locator, error) {
	values := l.DimensionValues(name)
	nested := make([]*Locator, 0, len(values))
	for _, v := range values {
		n, err := Parse(v)
		if err != nil {
			return nil, err
		}
		nested = append(nested, n)
	}
	return nested, nil
}

// Split returns one single-dimension locator per dimension, in order. It is
// used to evaluate the dimensions of an "or" independently.
func (l *Locator) Split() []*Locator {
	parts := make([]*Locator, 0, len(l.dims))
	for _, d := range l.dims {
		l.used[d.name] = true
		part := &Locator{dims: []dimension{d}, used: map[string]bool{}, help: d.name == HelpLiteral}
		part.text = part.String()
		parts = append(parts, part)
	}
	return parts
}

// MarkUsed marks dimensions as consumed.
func (l *Locator) MarkUsed(names ...string) {
	for _, name := range names {
		l.used[name] = true
	}
}

// Unused returns the dimensions that were never read, in order of first
// occurrence. An unread single value is reported as SingleValueKey.
func (l *Locator) Unused() []string {
	if l.single {
		if l.used[SingleValueKey] || l.help {
			return nil
		}
		return []string{SingleValueKey}
	}
	var unused []string
	for _, name := range l.DimensionNames() {
		if !l.used[name] && name != HelpLiteral {
			unused = append(unused, name)
		}
	}
	return unused
}

// String renders the locator in canonical form. Parsing the result yields
// the same single value or dimensions.
func (l *Locator) String() string {
	if l.single {
		return formatSingle(l.value)
	}
	parts := make([]string, 0, len(l.dims))
	for _, d := range l.dims {
		parts = append(parts, d.name+":"+formatValue(d.value, d.complex))
	}
	return strings.Join(parts, ",")
}

// FormatValue renders a dimension value so that parsing "name:" followed by
// the result yields value again. Values with reserved characters are wrapped
// in parentheses, or base64 encoded when their parentheses do not balance.
func FormatValue(value string) string {
	return formatValue(value, false)
}

func formatSingle(value string) string {
	if value == HelpLiteral || (value != "" && !strings.ContainsAny(value, ":(") && !strings.HasPrefix(value, Base64Prefix)) {
		return value
	}
	return encodeBase64(value)
}

func formatValue(value string, complex bool) string {
	if complex {
		if balanced(value) {
			return "(" + value + ")"
		}
		return encodeBase64(value)
	}
	if !strings.ContainsAny(value, ",()") && !strings.HasPrefix(value, Base64Prefix) {
		return value
	}
	if balanced(value) {
		return "(" + value + ")"
	}
	return encodeBase64(value)
}

func balanced(value string) bool {
	depth := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
