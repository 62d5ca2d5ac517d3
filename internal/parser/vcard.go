package parser

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contacts-cli/internal/model"
)

// ParseVCF reads a vCard 3.0/4.0 file. Each BEGIN:VCARD..END:VCARD block
// becomes one ParsedContact; RawIndex is the zero-based card index.
func ParseVCF(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	batch := &Batch{Source: "vcard"}

	lines, err := unfoldLines(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: read %s", path)
	}

	var (
		card    *vcardBuilder
		cardIdx = -1
	)
	for _, line := range lines {
		upper := strings.ToUpper(line)
		switch {
		case upper == "BEGIN:VCARD":
			cardIdx++
			card = &vcardBuilder{index: cardIdx}
		case upper == "END:VCARD":
			if card == nil {
				continue
			}
			batch.accept(card.contact())
			card = nil
		default:
			if card != nil {
				card.property(line)
			}
		}
	}

	return batch, nil
}

// unfoldLines reads physical lines and joins RFC 6350 continuation lines
// (those beginning with a space or tab) onto their predecessor.
func unfoldLines(f *os.File) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// vcardBuilder accumulates properties for one card.
type vcardBuilder struct {
	index  int
	fields model.ContactFields
	// FN is only a fallback when N is absent.
	formattedName string
	hasN          bool
	emails        []string
	phones        []string
	urls          []string
}

// property consumes one unfolded "NAME;PARAM=..:value" line.
func (v *vcardBuilder) property(line string) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return
	}
	lhs, value := line[:colon], line[colon+1:]
	name := lhs
	if semi := strings.Index(lhs, ";"); semi >= 0 {
		name = lhs[:semi]
	}
	// Group prefixes like "item1.URL" are irrelevant here.
	if dot := strings.Index(name, "."); dot >= 0 {
		name = name[dot+1:]
	}

	switch strings.ToUpper(name) {
	case "N":
		// Family;Given;Additional;Prefix;Suffix
		parts := splitEscaped(value, ';')
		if len(parts) > 1 {
			v.fields.FirstName = unescape(parts[1])
		}
		if len(parts) > 0 {
			v.fields.LastName = unescape(parts[0])
		}
		v.hasN = true
	case "FN":
		v.formattedName = unescape(value)
	case "EMAIL":
		v.emails = append(v.emails, strings.TrimSpace(value))
	case "TEL":
		v.phones = append(v.phones, strings.TrimSpace(value))
	case "TITLE":
		v.fields.Title = unescape(value)
	case "ORG":
		// Organization;Unit — only the organization survives.
		parts := splitEscaped(value, ';')
		if len(parts) > 0 {
			v.fields.Company = unescape(parts[0])
		}
	case "URL":
		v.urls = append(v.urls, strings.TrimSpace(value))
	case "ADR":
		// PoBox;Extended;Street;Locality;Region;PostalCode;Country
		parts := splitEscaped(value, ';')
		get := func(i int) string {
			if i < len(parts) {
				return unescape(parts[i])
			}
			return ""
		}
		if v.fields.StreetAddress == "" {
			v.fields.StreetAddress = get(2)
			v.fields.City = get(3)
			v.fields.State = get(4)
			v.fields.ZipCode = get(5)
			v.fields.Country = get(6)
		}
	case "NOTE":
		note := unescape(value)
		if v.fields.Notes == "" {
			v.fields.Notes = note
		} else {
			v.fields.Notes += "\n" + note
		}
	case "X-SOCIALPROFILE":
		if strings.Contains(strings.ToLower(value), "linkedin.com") {
			v.fields.LinkedInURL = strings.TrimSpace(value)
		}
	}
}

// contact finalizes the card into a ParsedContact.
func (v *vcardBuilder) contact() model.ParsedContact {
	if !v.hasN && v.formattedName != "" {
		first, last, _ := strings.Cut(v.formattedName, " ")
		v.fields.FirstName = first
		v.fields.LastName = last
	}

	if len(v.emails) > 0 {
		v.fields.PrimaryEmail = v.emails[0]
	}
	if len(v.emails) > 1 {
		v.fields.SecondaryEmail = v.emails[1]
	}
	if len(v.phones) > 0 {
		v.fields.PrimaryPhone = v.phones[0]
	}
	if len(v.phones) > 1 {
		v.fields.SecondaryPhone = v.phones[1]
	}
	for _, u := range v.urls {
		if strings.Contains(strings.ToLower(u), "linkedin.com") {
			if v.fields.LinkedInURL == "" {
				v.fields.LinkedInURL = u
			}
			continue
		}
		if v.fields.WebsiteURL == "" {
			v.fields.WebsiteURL = u
		}
	}

	return model.ParsedContact{
		ContactFields: v.fields,
		RawIndex:      v.index,
	}
}

// splitEscaped splits on sep, honoring backslash escapes.
func splitEscaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte('\\')
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	parts = append(parts, cur.String())
	return parts
}

// unescape resolves vCard text escapes: \n, \,  \; and \\.
func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return strings.TrimSpace(b.String())
}
