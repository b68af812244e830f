// Package parse converts raw HiOS CLI output into intermediate records.
// One parser per command family, registered by kind; every field stays a
// string here, type coercion belongs to the normalizer.
package parse

import (
	"fmt"
	"strings"
	"sync"
)

// Kind tags the command family a record set came from.
type Kind string

const (
	KindFacts      Kind = "facts"
	KindInterfaces Kind = "interfaces"
	KindIPBindings Kind = "interfaces-ip"
	KindARP        Kind = "arp"
	KindConfig     Kind = "config"
)

// ParseError reports output the parser could not make sense of. Fragment
// carries the offending raw text so failures can be reproduced against
// real device samples.
type ParseError struct {
	Kind     Kind
	Fragment string
	Reason   string
}

func (e *ParseError) Error() string {
	frag := e.Fragment
	if len(frag) > 120 {
		frag = frag[:120] + "..."
	}
	return fmt.Sprintf("parse %s: %s (fragment: %q)", e.Kind, e.Reason, frag)
}

// FactsRecord is the intermediate form of "show sysinfo" output.
type FactsRecord struct {
	Model     string
	Serial    string
	OSVersion string
	Hostname  string
	Uptime    string
}

// InterfaceRecord is one row of "show port all", untyped.
type InterfaceRecord struct {
	Name     string
	Admin    string
	Oper     string
	Speed    string
	MTU      string
	MAC      string
	LastFlap string
}

// IPBindingRecord is one row of "show ip interface", untyped.
type IPBindingRecord struct {
	Interface string
	Address   string
	Prefix    string
}

// ARPRecord is one row of "show arp", untyped.
type ARPRecord struct {
	Interface string
	IP        string
	MAC       string
	Age       string
}

// ConfigRecord carries a configuration blob with pagination artifacts
// removed but lines otherwise untouched.
type ConfigRecord struct {
	Text string
}

// Records is the tagged-variant result of a parse: exactly the field
// matching Kind is populated. SoftSkips counts under-populated rows that
// were dropped; RowErrors aggregates rows whose mandatory key column was
// unparsable.
type Records struct {
	Kind       Kind
	Facts      *FactsRecord
	Interfaces []InterfaceRecord
	Bindings   []IPBindingRecord
	ARP        []ARPRecord
	Config     *ConfigRecord
	SoftSkips  int
	RowErrors  []error
}

// Parser consumes raw CLI output for one command family.
type Parser interface {
	Kind() Kind
	Parse(raw string) (*Records, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[Kind]Parser{}
)

// Register adds a parser for its command family.
func Register(p Parser) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Kind()] = p
}

// Get returns the parser registered for the given kind.
func Get(kind Kind) (Parser, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[kind]
	return p, ok
}

// splitLines normalizes line endings and splits raw CLI output. CRLF
// becomes LF; orphan CRs are dropped, they are cursor noise from the PTY.
func splitLines(raw string) []string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.Split(s, "\n")
}
