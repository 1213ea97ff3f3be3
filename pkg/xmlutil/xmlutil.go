// Package xmlutil escapes untrusted values before they are embedded in
// XML-delimited prompt templates.
package xmlutil

import (
	"encoding/xml"
	"strings"
)

// Escape replaces characters with special meaning in XML.
func Escape(s string) string {
	var buf strings.Builder
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		// EscapeText only fails on invalid UTF-8; return original on error.
		return s
	}
	return buf.String()
}

// Element renders <name k="v" ...>body</name> with body and every attribute
// value escaped. attrs are key/value pairs; a trailing odd key is dropped.
// name and keys are trusted.
func Element(name, body string, attrs ...string) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(name)
	for i := 0; i+1 < len(attrs); i += 2 {
		b.WriteString(" ")
		b.WriteString(attrs[i])
		b.WriteString(`="`)
		b.WriteString(Escape(attrs[i+1]))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(Escape(body))
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">")
	return b.String()
}
