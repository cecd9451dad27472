package locator

import (
	"encoding/base64"
	"strings"
)

const (
	// HelpLiteral requests the dimension list instead of running a lookup.
	HelpLiteral = "$help"

	// Base64Prefix marks a value whose payload is base64-encoded.
	Base64Prefix = "$base64:"
)

// Logical dimensions whose values are nested locators.
const (
	DimensionAnd  = "and"
	DimensionOr   = "or"
	DimensionNot  = "not"
	DimensionItem = "item"
)

// Parse parses locator text.
//
// Text without any ':' or '(' is a single value. Anything else is a list of
// dimensions separated by top-level commas, each written as name:value,
// name:(value) or name(value).
func Parse(text string) (*Locator, error) {
	if text == "" {
		return nil, syntaxError(text, 0, "locator is empty")
	}
	if text == HelpLiteral {
		return &Locator{text: text, single: true, value: text, help: true, used: map[string]bool{}}, nil
	}
	if strings.HasPrefix(text, Base64Prefix) {
		value, err := decodeBase64(text, 0, text[len(Base64Prefix):])
		if err != nil {
			return nil, err
		}
		return &Locator{text: text, single: true, value: value, used: map[string]bool{}}, nil
	}
	if !strings.ContainsAny(text, ":(") {
		return &Locator{text: text, single: true, value: text, used: map[string]bool{}}, nil
	}

	p := &parser{text: text}
	dims, err := p.dimensions()
	if err != nil {
		return nil, err
	}

	l := &Locator{text: text, dims: dims, used: map[string]bool{}}
	ands := 0
	for _, d := range dims {
		switch d.name {
		case DimensionAnd:
			ands++
		case HelpLiteral:
			l.help = true
		}
	}
	if ands > 1 {
		return nil, syntaxError(text, 0, "dimension %q can be used only once", DimensionAnd)
	}
	return l, nil
}

type parser struct {
	text string
	pos  int
}

func (p *parser) dimensions() ([]dimension, error) {
	var dims []dimension
	for {
		d, err := p.dimension()
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)

		if p.pos == len(p.text) {
			return dims, nil
		}
		if p.text[p.pos] != ',' {
			return nil, syntaxError(p.text, p.pos, "unexpected character %q after value of dimension %q", p.text[p.pos], d.name)
		}
		p.pos++
	}
}

func (p *parser) dimension() (dimension, error) {
	start := p.pos
	for p.pos < len(p.text) && !strings.ContainsRune(":(,", rune(p.text[p.pos])) {
		p.pos++
	}
	name := p.text[start:p.pos]

	if p.pos == len(p.text) || p.text[p.pos] == ',' {
		if name == "" {
			return dimension{}, syntaxError(p.text, start, "empty dimension")
		}
		return dimension{}, syntaxError(p.text, start, "value %q without a dimension name cannot be mixed with dimensions", name)
	}
	if name == "" {
		return dimension{}, syntaxError(p.text, start, "empty dimension name")
	}

	if p.text[p.pos] == ':' {
		p.pos++
		if p.pos == len(p.text) || p.text[p.pos] != '(' {
			return p.plainValue(name)
		}
	}

	value, err := p.complexValue()
	if err != nil {
		return dimension{}, err
	}
	return dimension{name: name, value: value, complex: true}, nil
}

// plainValue reads up to the next comma outside parentheses. Unbalanced
// parentheses in a plain value are kept as ordinary characters.
func (p *parser) plainValue(name string) (dimension, error) {
	start := p.pos
	end := -1
	depth := 0
	for i := start; i < len(p.text) && end < 0; i++ {
		switch p.text[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				end = i
			}
		}
	}
	if end < 0 {
		if depth == 0 {
			end = len(p.text)
		} else if i := strings.IndexByte(p.text[start:], ','); i >= 0 {
			end = start + i
		} else {
			end = len(p.text)
		}
	}

	raw := p.text[start:end]
	p.pos = end
	if strings.HasPrefix(raw, Base64Prefix) {
		value, err := decodeBase64(p.text, start, raw[len(Base64Prefix):])
		if err != nil {
			return dimension{}, err
		}
		return dimension{name: name, value: value}, nil
	}
	return dimension{name: name, value: raw}, nil
}

// complexValue reads a parenthesized value starting at the current '('. The
// closing parenthesis is found by depth counting; when the value is not
// balanced, it ends at the first ')' followed by a comma or the end of text.
func (p *parser) complexValue() (string, error) {
	open := p.pos
	depth := 0
	for i := open; i < len(p.text); i++ {
		switch p.text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				p.pos = i + 1
				return p.text[open+1 : i], nil
			}
		}
	}

	for i := open + 1; i < len(p.text); i++ {
		if p.text[i] == ')' && (i+1 == len(p.text) || p.text[i+1] == ',') {
			p.pos = i + 1
			return p.text[open+1 : i], nil
		}
	}
	return "", syntaxError(p.text, open, "no closing parenthesis for value")
}

func decodeBase64(text string, pos int, payload string) (string, error) {
	trimmed := strings.TrimRight(payload, "=")
	if decoded, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return string(decoded), nil
	}
	decoded, err := base64.RawStdEncoding.DecodeString(trimmed)
	if err != nil {
		return "", syntaxError(text, pos, "invalid base64 value: %v", err)
	}
	return string(decoded), nil
}

func encodeBase64(value string) string {
	return Base64Prefix + base64.RawURLEncoding.EncodeToString([]byte(value))
}
