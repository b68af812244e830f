package parse

import (
	"net"
	"strings"
)

// ipParser handles "show ip interface". Addresses arrive either as
// "10.0.4.2/24" in one column or split across address and netmask/prefix
// columns depending on release.
type ipParser struct{}

func (ipParser) Kind() Kind { return KindIPBindings }

var ipColumns = []columnSpec{
	{name: "iface", aliases: []string{"interface", "port", "intf"}},
	{name: "addr", aliases: []string{"ip address", "address", "ip"}},
	{name: "mask", aliases: []string{"prefix length", "prefix", "netmask", "subnet mask", "mask"}},
}

func (p ipParser) Parse(raw string) (*Records, error) {
	lines := splitLines(raw)
	recs := &Records{Kind: KindIPBindings}

	headerIdx, cols, ok := locateHeader(lines, ipColumns, 2)
	if !ok || !hasColumn(cols, "iface") || !hasColumn(cols, "addr") {
		// Without a recognizable header there is no safe way to tell the
		// address column apart; an empty set here means "nothing bound".
		return recs, nil
	}

	for _, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" || isSeparator(line) || isSummary(line) || isPromptLine(line) {
			continue
		}
		c := cells(line, cols)
		addr := strings.TrimSpace(c["addr"])
		prefix := strings.TrimSpace(c["mask"])
		if i := strings.Index(addr, "/"); i >= 0 {
			prefix = addr[i+1:]
			addr = addr[:i]
		}
		if addr == "" && c["iface"] == "" {
			recs.SoftSkips++
			continue
		}
		if net.ParseIP(addr) == nil {
			recs.RowErrors = append(recs.RowErrors, &ParseError{
				Kind:     KindIPBindings,
				Fragment: line,
				Reason:   "ip address column unparsable",
			})
			continue
		}
		iface := strings.TrimSpace(c["iface"])
		if name, ok := portName(iface); ok {
			iface = name
		}
		recs.Bindings = append(recs.Bindings, IPBindingRecord{
			Interface: iface,
			Address:   addr,
			Prefix:    prefix,
		})
	}

	if len(recs.Bindings) == 0 && len(recs.RowErrors) > 0 {
		return nil, &ParseError{
			Kind:     KindIPBindings,
			Fragment: raw,
			Reason:   "no usable ip binding rows",
		}
	}
	return recs, nil
}

func init() { Register(ipParser{}) }
