package parse

import (
	"regexp"
	"strings"
)

// sysinfoParser handles "show sysinfo". Output is label/value lines; newer
// releases print "Label: value" while classic firmware pads labels with
// dots ("System Name..................... sw-core-1"). Label wording also
// drifts, so each fact has a synonym list.
type sysinfoParser struct{}

func (sysinfoParser) Kind() Kind { return KindFacts }

var factLabels = map[string][]string{
	"model": {
		"backplane hardware description",
		"device hardware description",
		"hardware description",
		"model",
	},
	"serial": {
		"serial number (backplane)",
		"serial number",
		"serial",
	},
	"os_version": {
		"running software release",
		"software release",
		"sw version",
		"software version",
		"os version",
	},
	"hostname": {
		"system name",
	},
	"uptime": {
		"system up time",
		"system uptime",
	},
}

var dotRunRe = regexp.MustCompile(`\.{2,}`)

// labelValue splits one sysinfo line into (label, value). Dot padding wins
// over colons so values containing colons (uptime) survive intact.
func labelValue(line string) (string, string, bool) {
	if loc := dotRunRe.FindStringIndex(line); loc != nil {
		label := strings.TrimSpace(line[:loc[0]])
		value := strings.TrimSpace(line[loc[1]:])
		if label != "" {
			return strings.ToLower(label), value, true
		}
	}
	if i := strings.Index(line, ":"); i > 0 {
		label := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		if label != "" {
			return strings.ToLower(label), value, true
		}
	}
	return "", "", false
}

func (p sysinfoParser) Parse(raw string) (*Records, error) {
	found := make(map[string]string, len(factLabels))
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" || isSeparator(line) {
			continue
		}
		label, value, ok := labelValue(line)
		if !ok || value == "" {
			continue
		}
		for fact, aliases := range factLabels {
			if _, done := found[fact]; done {
				continue
			}
			for _, alias := range aliases {
				if label == alias {
					found[fact] = value
					break
				}
			}
		}
	}

	// Facts is a single-record getter with mandatory fields: an empty or
	// partial result is never silently substituted.
	for _, fact := range []string{"model", "serial", "os_version", "hostname", "uptime"} {
		if _, ok := found[fact]; !ok {
			return nil, &ParseError{
				Kind:     KindFacts,
				Fragment: raw,
				Reason:   "mandatory field " + fact + " not present in sysinfo output",
			}
		}
	}

	return &Records{
		Kind: KindFacts,
		Facts: &FactsRecord{
			Model:     found["model"],
			Serial:    found["serial"],
			OSVersion: found["os_version"],
			Hostname:  found["hostname"],
			Uptime:    found["uptime"],
		},
	}, nil
}

func init() { Register(sysinfoParser{}) }
