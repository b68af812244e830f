package parse

import "strings"

// configParser handles "show running-config" and "show startup-config".
// Downstream consumers diff the blob byte-for-byte, so lines pass through
// verbatim; only terminal artifacts are removed: pagination prompts
// ("--More-- or (q)uit"), the echoed command line and the trailing prompt.
type configParser struct{}

func (configParser) Kind() Kind { return KindConfig }

func (p configParser) Parse(raw string) (*Records, error) {
	lines := splitLines(raw)
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "--more--") {
			continue
		}
		if i == 0 && strings.HasPrefix(strings.TrimSpace(lower), "show ") {
			continue
		}
		if i == len(lines)-1 && isPromptLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	// Continuation lines of a section keep their indentation untouched;
	// reassembly is the joined blob itself.
	return &Records{
		Kind:   KindConfig,
		Config: &ConfigRecord{Text: strings.Join(kept, "\n")},
	}, nil
}

func init() { Register(configParser{}) }
