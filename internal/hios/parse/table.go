package parse

import (
	"regexp"
	"strings"
)

// HiOS tables shift column order and width between firmware releases, so
// column layout is derived from the header row, never from fixed offsets.

// columnSpec names one logical column and the header tokens that identify
// it across firmware variants.
type columnSpec struct {
	name    string
	aliases []string
}

// column is a located header column: a half-open byte range into each data
// row. end < 0 means "to end of line".
type column struct {
	name  string
	start int
	end   int
}

// findToken returns the index of alias in lower as a whole word, or -1.
func findToken(lower, alias string) int {
	from := 0
	for {
		i := strings.Index(lower[from:], alias)
		if i < 0 {
			return -1
		}
		i += from
		beforeOK := i == 0 || !isWordChar(lower[i-1])
		end := i + len(alias)
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return i
		}
		from = i + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// locateHeader scans lines for the first row matching at least minMatch of
// the given specs, alias order and column order both irrelevant. It returns
// the header line index and the located columns sorted by position.
func locateHeader(lines []string, specs []columnSpec, minMatch int) (int, []column, bool) {
	for idx, line := range lines {
		lower := strings.ToLower(line)
		if strings.TrimSpace(lower) == "" || isSeparator(line) {
			continue
		}
		var cols []column
		for _, spec := range specs {
			pos := -1
			for _, alias := range spec.aliases {
				if p := findToken(lower, alias); p >= 0 && (pos < 0 || p < pos) {
					pos = p
				}
			}
			if pos >= 0 {
				cols = append(cols, column{name: spec.name, start: pos, end: -1})
			}
		}
		if len(cols) < minMatch {
			continue
		}
		sortColumns(cols)
		// Boundaries run from each header token to the next one. The first
		// column is widened to the line start so indented headers still
		// cover left-aligned data.
		for i := range cols {
			if i+1 < len(cols) {
				cols[i].end = cols[i+1].start
			}
		}
		cols[0].start = 0
		return idx, cols, true
	}
	return 0, nil, false
}

func sortColumns(cols []column) {
	for i := 1; i < len(cols); i++ {
		for j := i; j > 0 && cols[j].start < cols[j-1].start; j-- {
			cols[j], cols[j-1] = cols[j-1], cols[j]
		}
	}
}

// cells slices one data row by the header column layout.
func cells(line string, cols []column) map[string]string {
	out := make(map[string]string, len(cols))
	for _, c := range cols {
		start := c.start
		if start > len(line) {
			start = len(line)
		}
		end := c.end
		if end < 0 || end > len(line) {
			end = len(line)
		}
		if start > end {
			start = end
		}
		out[c.name] = strings.TrimSpace(line[start:end])
	}
	return out
}

var summaryRe = regexp.MustCompile(`(?i)^\s*\d+\s+entr(y|ies)\b`)

// isSeparator reports rows made of table rule characters.
func isSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '-', '=', '+', ' ', '.':
		default:
			return false
		}
	}
	return true
}

// isSummary reports trailing summary rows such as "3 entries found".
func isSummary(line string) bool {
	return summaryRe.MatchString(line) || strings.Contains(strings.ToLower(line), "entries found")
}

// isPromptLine reports an echoed CLI prompt, e.g. "sw-core-1#".
func isPromptLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t") {
		return false
	}
	return strings.HasSuffix(trimmed, "#") || strings.HasSuffix(trimmed, ">")
}
