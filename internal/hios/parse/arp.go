package parse

import (
	"net"
	"strings"
)

// arpParser handles "show arp". An empty ARP table is a valid device state
// and parses to an empty record set, never an error.
type arpParser struct{}

func (arpParser) Kind() Kind { return KindARP }

var arpColumns = []columnSpec{
	{name: "ip", aliases: []string{"ip address", "ip"}},
	{name: "mac", aliases: []string{"mac address", "hardware address", "mac"}},
	{name: "iface", aliases: []string{"interface", "port", "intf"}},
	{name: "age", aliases: []string{"age (sec)", "age"}},
}

func (p arpParser) Parse(raw string) (*Records, error) {
	lines := splitLines(raw)
	recs := &Records{Kind: KindARP}

	headerIdx, cols, ok := locateHeader(lines, arpColumns, 2)
	if ok && hasColumn(cols, "ip") {
		for _, line := range lines[headerIdx+1:] {
			p.parseRow(cells(line, cols), line, recs)
		}
	} else {
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) < 2 || net.ParseIP(fields[0]) == nil {
				continue
			}
			c := map[string]string{"ip": fields[0], "mac": fields[1]}
			if len(fields) > 2 {
				c["iface"] = fields[2]
			}
			if len(fields) > 3 {
				c["age"] = fields[3]
			}
			p.parseRow(c, line, recs)
		}
	}

	if len(recs.ARP) == 0 && len(recs.RowErrors) > 0 {
		return nil, &ParseError{
			Kind:     KindARP,
			Fragment: raw,
			Reason:   "no usable arp rows",
		}
	}
	return recs, nil
}

func (p arpParser) parseRow(c map[string]string, line string, recs *Records) {
	if strings.TrimSpace(line) == "" || isSeparator(line) || isSummary(line) || isPromptLine(line) {
		return
	}
	ip := strings.TrimSpace(c["ip"])
	if ip == "" && c["mac"] == "" {
		recs.SoftSkips++
		return
	}
	if net.ParseIP(ip) == nil {
		recs.RowErrors = append(recs.RowErrors, &ParseError{
			Kind:     KindARP,
			Fragment: line,
			Reason:   "ip address column unparsable",
		})
		return
	}
	recs.ARP = append(recs.ARP, ARPRecord{
		Interface: c["iface"],
		IP:        ip,
		MAC:       c["mac"],
		Age:       c["age"],
	})
}

func init() { Register(arpParser{}) }
