package core

import (
	"fmt"
	"regexp"
	"strings"
)

type valueKind int

const (
	valueString valueKind = iota
	valueBool
	valueInlineTable
)

// Value is a TOML value the editor knows how to write: a string, a
// boolean or an inline table of such values.
type Value struct {
	kind    valueKind
	str     string
	boolean bool
	fields  []Field
}

// Field is one key of an inline table. Field order is kept on output.
type Field struct {
	Key   string
	Value Value
}

func StringValue(s string) Value {
	return Value{kind: valueString, str: s}
}

func BoolValue(b bool) Value {
	return Value{kind: valueBool, boolean: b}
}

func InlineTableValue(fields ...Field) Value {
	return Value{kind: valueInlineTable, fields: fields}
}

// Encode renders the value as TOML source.
func (v Value) Encode() string {
	switch v.kind {
	case valueBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case valueInlineTable:
		if len(v.fields) == 0 {
			return "{}"
		}
		parts := make([]string, 0, len(v.fields))
		for _, field := range v.fields {
			parts = append(parts, encodeKey(field.Key)+" = "+field.Value.Encode())
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return quoteString(v.str)
	}
}

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// encodeKey writes a single key segment, quoting it unless it is a bare
// key. Dots inside a segment are never treated as separators.
func encodeKey(key string) string {
	if bareKey.MatchString(key) {
		return key
	}
	return quoteString(key)
}

func encodeKeyPath(path []string) string {
	parts := make([]string, 0, len(path))
	for _, segment := range path {
		parts = append(parts, encodeKey(segment))
	}
	return strings.Join(parts, ".")
}

// quoteString writes a TOML basic string.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
