package hios

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hioscollector/hioscollector/internal/hios/parse"
	"github.com/hioscollector/hioscollector/pkg/logger"
)

// The normalizer is the only place textual device values become typed ones.
// Everything here is pure; failures carry the field and the raw input.

const hexDigits = "0123456789abcdef"

// canonicalMAC strips separators, lowercases and reinserts colons every two
// hex digits. Anything that does not leave exactly 12 hex digits fails.
func canonicalMAC(field, raw string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(cleaned)
	if len(cleaned) != 12 {
		return "", &NormalizationError{
			Field:  field,
			Raw:    raw,
			Reason: fmt.Sprintf("expected 12 hex digits, got %d", len(cleaned)),
		}
	}
	for i := 0; i < len(cleaned); i++ {
		if !strings.ContainsRune(hexDigits, rune(cleaned[i])) {
			return "", &NormalizationError{Field: field, Raw: raw, Reason: "non-hex character"}
		}
	}
	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(cleaned[i : i+2])
	}
	return b.String(), nil
}

// coerceBool maps the admin/link status vocabulary onto booleans. Unknown
// words are an error, not a guess.
func coerceBool(field, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up", "enabled", "enable", "yes", "true", "on":
		return true, nil
	case "down", "disabled", "disable", "no", "false", "off":
		return false, nil
	default:
		return false, &NormalizationError{Field: field, Raw: raw, Reason: "not a recognized status word"}
	}
}

// speedToBits converts a textual speed to bits per second. A bare number is
// Mbps, the CLI convention ("1000" ≡ "1000 Mbps" ≡ "1 Gbps").
func speedToBits(field, raw string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "-" || s == "auto" || s == "unknown" {
		return 0, nil
	}
	multiplier := int64(1_000_000)
	for _, u := range []struct {
		suffix string
		mult   int64
	}{
		{"kbit/s", 1_000}, {"kbps", 1_000}, {"kbit", 1_000}, {"k", 1_000},
		{"mbit/s", 1_000_000}, {"mbps", 1_000_000}, {"mbit", 1_000_000}, {"m", 1_000_000},
		{"gbit/s", 1_000_000_000}, {"gbps", 1_000_000_000}, {"gbit", 1_000_000_000}, {"g", 1_000_000_000},
	} {
		if strings.HasSuffix(s, u.suffix) {
			multiplier = u.mult
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}
	// Half/full duplex suffixes ride along on some releases ("100 full").
	s = strings.TrimSpace(strings.TrimSuffix(s, "full"))
	s = strings.TrimSpace(strings.TrimSuffix(s, "half"))
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &NormalizationError{Field: field, Raw: raw, Reason: "not a numeric speed"}
	}
	return int64(n * float64(multiplier)), nil
}

// parseSeconds converts the duration grammars HiOS prints into seconds:
// "2 days, 03:14:09", "0 days 0 hrs 4 mins 9 secs", "03:14:09" and plain
// integer seconds.
func parseSeconds(field, raw string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, &NormalizationError{Field: field, Raw: raw, Reason: "empty duration"}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	var total int64
	rest := s
	if i := strings.Index(rest, "day"); i >= 0 {
		nStr := strings.TrimSpace(rest[:i])
		n, err := strconv.ParseInt(nStr, 10, 64)
		if err != nil {
			return 0, &NormalizationError{Field: field, Raw: raw, Reason: "malformed day count"}
		}
		total += n * 86400
		rest = rest[i:]
		rest = strings.TrimPrefix(rest, "days")
		rest = strings.TrimPrefix(rest, "day")
		rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ","))
	}
	if rest == "" {
		return total, nil
	}

	if strings.Contains(rest, ":") {
		parts := strings.Split(rest, ":")
		if len(parts) != 3 {
			return 0, &NormalizationError{Field: field, Raw: raw, Reason: "expected hh:mm:ss"}
		}
		mult := []int64{3600, 60, 1}
		for i, part := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return 0, &NormalizationError{Field: field, Raw: raw, Reason: "malformed hh:mm:ss"}
			}
			total += n * mult[i]
		}
		return total, nil
	}

	// "H hrs M mins S secs" wording, any subset, classic firmware.
	fields := strings.Fields(rest)
	if len(fields)%2 != 0 {
		return 0, &NormalizationError{Field: field, Raw: raw, Reason: "unrecognized duration grammar"}
	}
	for i := 0; i < len(fields); i += 2 {
		n, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return 0, &NormalizationError{Field: field, Raw: raw, Reason: "unrecognized duration grammar"}
		}
		switch strings.TrimSuffix(fields[i+1], ".") {
		case "hr", "hrs", "hour", "hours", "h":
			total += n * 3600
		case "min", "mins", "minute", "minutes", "m":
			total += n * 60
		case "sec", "secs", "second", "seconds", "s":
			total += n
		default:
			return 0, &NormalizationError{Field: field, Raw: raw, Reason: "unrecognized duration unit " + fields[i+1]}
		}
	}
	return total, nil
}

// parseOptionalAge returns nil for the "age unknown" spellings, which is
// distinct from an age of zero.
func parseOptionalAge(field, raw string) (*float64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "-" || s == "n/a" || s == "unknown" {
		return nil, nil
	}
	secs, err := parseSeconds(field, s)
	if err != nil {
		return nil, err
	}
	age := float64(secs)
	return &age, nil
}

// normalizeFacts builds the canonical facts snapshot. Every field is
// mandatory: a facts result is complete or it is an error.
func normalizeFacts(rec *parse.FactsRecord, interfaceList []string) (*DeviceFacts, error) {
	uptime, err := parseSeconds("uptime", rec.Uptime)
	if err != nil {
		return nil, err
	}
	hostname := strings.TrimSpace(rec.Hostname)
	if hostname == "" {
		return nil, &NormalizationError{Field: "hostname", Raw: rec.Hostname, Reason: "empty"}
	}
	return &DeviceFacts{
		Vendor:        Vendor,
		Model:         strings.TrimSpace(rec.Model),
		SerialNumber:  strings.TrimSpace(rec.Serial),
		OSVersion:     strings.TrimSpace(rec.OSVersion),
		Hostname:      hostname,
		FQDN:          hostname,
		UptimeSeconds: uptime,
		InterfaceList: interfaceList,
	}, nil
}

// normalizeInterfaces converts interface rows, skipping rows that fail
// normalization and surfacing an error only when nothing survived.
func normalizeInterfaces(recs []parse.InterfaceRecord) (map[string]Interface, error) {
	out := make(map[string]Interface, len(recs))
	var firstErr error
	for _, rec := range recs {
		iface, err := normalizeInterface(rec)
		if err != nil {
			logger.WithField("port", rec.Name).Warnf("skipping interface row: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[iface.Name] = iface
	}
	if len(out) == 0 && firstErr != nil {
		return nil, fmt.Errorf("no interface row normalized: %w", firstErr)
	}
	return out, nil
}

func normalizeInterface(rec parse.InterfaceRecord) (Interface, error) {
	admin, err := coerceBool("admin_status", rec.Admin)
	if err != nil {
		return Interface{}, err
	}
	oper, err := coerceBool("oper_status", rec.Oper)
	if err != nil {
		return Interface{}, err
	}
	speed, err := speedToBits("speed", rec.Speed)
	if err != nil {
		return Interface{}, err
	}

	iface := Interface{
		Name:     rec.Name,
		AdminUp:  admin,
		OperUp:   oper,
		SpeedBps: speed,
	}
	if s := strings.TrimSpace(rec.MTU); s != "" && s != "-" {
		mtu, err := strconv.Atoi(s)
		if err != nil {
			return Interface{}, &NormalizationError{Field: "mtu", Raw: rec.MTU, Reason: "not an integer"}
		}
		iface.MTU = mtu
	}
	if strings.TrimSpace(rec.MAC) != "" {
		mac, err := canonicalMAC("mac_address", rec.MAC)
		if err != nil {
			return Interface{}, err
		}
		iface.MAC = mac
	}
	if age, err := parseOptionalAge("last_flapped", rec.LastFlap); err != nil {
		// A broken last-change value never fails the row, but it is logged
		// like every other discarded field.
		logger.WithField("port", rec.Name).Debugf("ignoring last change value: %v", err)
	} else if age != nil {
		d := time.Duration(*age) * time.Second
		iface.LastFlapped = &d
	}
	return iface, nil
}

// normalizeBindings converts IP binding rows and enforces the uniqueness
// invariant: one (family, address) pair per interface.
func normalizeBindings(recs []parse.IPBindingRecord) (map[string][]InterfaceIPBinding, error) {
	out := make(map[string][]InterfaceIPBinding)
	seen := make(map[string]struct{})
	var firstErr error
	normalized := 0
	for _, rec := range recs {
		family := FamilyIPv4
		if strings.Contains(rec.Address, ":") {
			family = FamilyIPv6
		}
		prefix, err := prefixLength(rec.Prefix, family)
		if err != nil {
			logger.WithField("interface", rec.Interface).Warnf("skipping ip binding row: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		key := rec.Interface + "|" + family + "|" + rec.Address
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out[rec.Interface] = append(out[rec.Interface], InterfaceIPBinding{
			Interface:    rec.Interface,
			Family:       family,
			Address:      rec.Address,
			PrefixLength: prefix,
		})
		normalized++
	}
	if normalized == 0 && firstErr != nil {
		return nil, fmt.Errorf("no ip binding row normalized: %w", firstErr)
	}
	return out, nil
}

// prefixLength accepts a plain length ("24") or a dotted IPv4 netmask.
func prefixLength(raw, family string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		// Unnumbered mgmt interfaces report no mask; host routes are the
		// device behavior in that case.
		if family == FamilyIPv6 {
			return 128, nil
		}
		return 32, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		max := 32
		if family == FamilyIPv6 {
			max = 128
		}
		if n < 0 || n > max {
			return 0, &NormalizationError{Field: "prefix_length", Raw: raw, Reason: "out of range"}
		}
		return n, nil
	}
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return 0, &NormalizationError{Field: "prefix_length", Raw: raw, Reason: "neither length nor netmask"}
	}
	bits := 0
	for _, o := range octets {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 {
			return 0, &NormalizationError{Field: "prefix_length", Raw: raw, Reason: "malformed netmask octet"}
		}
		for ; n > 0; n = (n << 1) & 0xff {
			if n&0x80 == 0 {
				return 0, &NormalizationError{Field: "prefix_length", Raw: raw, Reason: "non-contiguous netmask"}
			}
			bits++
		}
	}
	return bits, nil
}

// normalizeARP converts ARP rows into a snapshot keyed by interface and IP.
func normalizeARP(recs []parse.ARPRecord) (map[string]ARPEntry, error) {
	out := make(map[string]ARPEntry, len(recs))
	var firstErr error
	for _, rec := range recs {
		mac, err := canonicalMAC("mac_address", rec.MAC)
		if err != nil {
			logger.WithField("ip", rec.IP).Warnf("skipping arp row: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		age, err := parseOptionalAge("age", rec.Age)
		if err != nil {
			logger.WithField("ip", rec.IP).Warnf("skipping arp row: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		entry := ARPEntry{
			Interface:  strings.TrimSpace(rec.Interface),
			IP:         rec.IP,
			MAC:        mac,
			AgeSeconds: age,
		}
		out[arpKey(entry.Interface, entry.IP)] = entry
	}
	if len(out) == 0 && firstErr != nil {
		return nil, fmt.Errorf("no arp row normalized: %w", firstErr)
	}
	return out, nil
}

// arpKey builds the composite snapshot key for an ARP entry.
func arpKey(iface, ip string) string {
	if iface == "" {
		return ip
	}
	return iface + "|" + ip
}
