package patentxml

import (
	"encoding/xml"
	"strings"
)

// blockElements end a line of extracted text.
var blockElements = map[string]bool{
	"p":       true,
	"heading": true,
	"li":      true,
	"row":     true,
	"claim":   true,
	"br":      true,
}

// textContent is the character data of an element and its descendants,
// with one line per paragraph-like element.
type textContent string

// UnmarshalXML collects character data until the element ends.
func (t *textContent) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for depth := 1; depth > 0; {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
			if blockElements[tok.Name.Local] {
				b.WriteByte('\n')
			}
		case xml.CharData:
			b.Write(tok)
		}
	}
	*t = textContent(normalizeText(b.String()))
	return nil
}

func (t textContent) String() string {
	return string(t)
}

// normalizeText collapses whitespace within lines and drops empty lines.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// scrubString trims whitespace and collapses inner runs of it.
func scrubString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = scrubString(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
