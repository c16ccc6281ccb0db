package document

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode writes doc to w in the given format. An empty format means XML.
func Encode(w io.Writer, doc *Document, format string) error {
	switch format {
	case "", FormatXML:
		_, err := io.WriteString(w, XML(doc))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

// escapeText escapes s for character data. Invalid UTF-8 and characters XML
// does not allow become U+FFFD.
func escapeText(s string) string { return textEscaper.Replace(strings.Map(xmlChar, s)) }

// escapeAttr escapes s for a double-quoted attribute value.
func escapeAttr(s string) string { return attrEscaper.Replace(strings.Map(xmlChar, s)) }

// xmlChar maps runes outside the XML Char production to U+FFFD.
func xmlChar(r rune) rune {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return r
	case r < 0x20, r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE || r == 0xFFFF, r > unicode.MaxRune:
		return unicode.ReplacementChar
	}
	return r
}

// XML renders doc in pcc's XML layout. File content is indented line by
// line and escaped; invalid characters are replaced, so the result is well
// formed for any input.
func XML(doc *Document) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<project>\n")

	writeSection(&b, "targets", doc.Targets)
	writeSection(&b, "references", doc.References)
	for _, f := range doc.Files {
		writeFile(&b, f, "  ")
	}
	writeSection(&b, "dependencies", doc.Dependencies)

	if len(doc.Cycles) > 0 {
		b.WriteString("  <cycles>\n")
		for _, c := range doc.Cycles {
			fmt.Fprintf(&b, "    <cycle from=\"%s\" to=\"%s\"/>\n", escapeAttr(c.From), escapeAttr(c.To))
		}
		b.WriteString("  </cycles>\n")
	}

	b.WriteString("</project>\n")
	return b.String()
}

func writeSection(b *strings.Builder, tag string, files []File) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(b, "  <%s>\n", tag)
	for _, f := range files {
		writeFile(b, f, "    ")
	}
	fmt.Fprintf(b, "  </%s>\n", tag)
}

func writeFile(b *strings.Builder, f File, indent string) {
	fmt.Fprintf(b, "%s<file name=\"%s\">\n", indent, escapeAttr(f.Name))
	if len(f.ImportedBy) > 0 {
		fmt.Fprintf(b, "%s  <imported_by>\n", indent)
		for _, imp := range f.ImportedBy {
			fmt.Fprintf(b, "%s    <importer>%s</importer>\n", indent, escapeText(imp))
		}
		fmt.Fprintf(b, "%s  </imported_by>\n", indent)
	}
	for i, line := range lines(f.Content) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(indent + "  " + escapeText(line))
	}
	fmt.Fprintf(b, "\n%s</file>\n", indent)
}

// lines splits s on newlines, dropping a trailing empty line and carriage
// returns.
func lines(s string) []string {
	if s == "" {
		return nil
	}
	out := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range out {
		out[i] = strings.TrimSuffix(l, "\r")
	}
	return out
}
