package parse

import (
	"strings"
)

// portParser handles "show port all". Preferred path is header-driven
// column detection; firmware that prints the table without a recognizable
// header falls back to positional whitespace fields.
type portParser struct{}

func (portParser) Kind() Kind { return KindInterfaces }

var portColumns = []columnSpec{
	{name: "name", aliases: []string{"port", "interface", "intf"}},
	{name: "admin", aliases: []string{"admin mode", "admin state", "admin status", "admin"}},
	{name: "oper", aliases: []string{"link status", "physical status", "oper status", "link", "oper"}},
	{name: "speed", aliases: []string{"speed", "physical mode"}},
	{name: "mtu", aliases: []string{"mtu", "max frame size"}},
	{name: "mac", aliases: []string{"mac address", "burned in mac address", "mac"}},
	{name: "lastflap", aliases: []string{"last change", "last link change", "last flap"}},
}

// portName validates and canonicalizes the key column. HiOS port names
// start with the slot digit ("1/1", "1.1"); some releases prefix the
// literal word "Port".
func portName(cell string) (string, bool) {
	name := strings.TrimSpace(cell)
	if rest, ok := cutWordPrefix(name, "port"); ok {
		name = rest
	}
	if name == "" || name[0] < '0' || name[0] > '9' {
		return "", false
	}
	return name, true
}

func cutWordPrefix(s, word string) (string, bool) {
	if len(s) <= len(word) || !strings.EqualFold(s[:len(word)], word) {
		return s, false
	}
	rest := s[len(word):]
	if rest[0] != ' ' && rest[0] != '\t' {
		return s, false
	}
	return strings.TrimSpace(rest), true
}

func (p portParser) Parse(raw string) (*Records, error) {
	lines := splitLines(raw)
	recs := &Records{Kind: KindInterfaces}

	headerIdx, cols, ok := locateHeader(lines, portColumns, 3)
	if ok && hasColumn(cols, "name") {
		p.parseWithHeader(lines[headerIdx+1:], cols, recs)
	} else {
		p.parsePositional(lines, recs)
	}

	if len(recs.Interfaces) == 0 && len(recs.RowErrors) > 0 {
		return nil, &ParseError{
			Kind:     KindInterfaces,
			Fragment: raw,
			Reason:   "no usable interface rows",
		}
	}
	return recs, nil
}

func (p portParser) parseWithHeader(rows []string, cols []column, recs *Records) {
	for _, line := range rows {
		if strings.TrimSpace(line) == "" || isSeparator(line) || isSummary(line) || isPromptLine(line) {
			continue
		}
		c := cells(line, cols)
		name, ok := portName(c["name"])
		if !ok {
			recs.RowErrors = append(recs.RowErrors, &ParseError{
				Kind:     KindInterfaces,
				Fragment: line,
				Reason:   "port name column unparsable",
			})
			continue
		}
		if c["admin"] == "" && c["oper"] == "" {
			recs.SoftSkips++
			continue
		}
		recs.Interfaces = append(recs.Interfaces, InterfaceRecord{
			Name:     name,
			Admin:    c["admin"],
			Oper:     c["oper"],
			Speed:    c["speed"],
			MTU:      c["mtu"],
			MAC:      c["mac"],
			LastFlap: c["lastflap"],
		})
	}
}

// parsePositional takes rows of the shape
// "Port 1.1   up   up   1000   00:1e:2a:3b:4c:5d   [last change...]".
func (p portParser) parsePositional(lines []string, recs *Records) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || isSeparator(line) || isSummary(line) || isPromptLine(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 1 && strings.EqualFold(fields[0], "port") {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		name, ok := portName(fields[0])
		if !ok {
			// Free-form text around the table is not a row failure here:
			// without a header anything non-port-shaped is just noise.
			continue
		}
		if len(fields) < 3 {
			recs.SoftSkips++
			continue
		}
		rec := InterfaceRecord{Name: name, Admin: fields[1], Oper: fields[2]}
		rest := fields[3:]
		if len(rest) > 0 {
			rec.Speed = rest[0]
			rest = rest[1:]
		}
		if len(rest) > 0 && looksLikeMAC(rest[0]) {
			rec.MAC = rest[0]
			rest = rest[1:]
		} else if len(rest) > 0 {
			rec.MTU = rest[0]
			rest = rest[1:]
			if len(rest) > 0 && looksLikeMAC(rest[0]) {
				rec.MAC = rest[0]
				rest = rest[1:]
			}
		}
		if len(rest) > 0 {
			rec.LastFlap = strings.Join(rest, " ")
		}
		recs.Interfaces = append(recs.Interfaces, rec)
	}
}

func looksLikeMAC(s string) bool {
	hex := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			hex++
		case r == ':' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return hex == 12
}

func hasColumn(cols []column, name string) bool {
	for _, c := range cols {
		if c.name == name {
			return true
		}
	}
	return false
}

func init() { Register(portParser{}) }
