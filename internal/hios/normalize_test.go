package hios

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hioscollector/hioscollector/internal/hios/parse"
	"github.com/hioscollector/hioscollector/pkg/logger"
)

func TestCanonicalMAC(t *testing.T) {
	for _, raw := range []string{
		"00:80:63:AA:BB:01",
		"00-80-63-aa-bb-01",
		"0080.63aa.bb01",
		"008063aabb01",
	} {
		mac, err := canonicalMAC("mac_address", raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "00:80:63:aa:bb:01", mac, "every source format collapses to the same canonical form")
	}
}

func TestCanonicalMACRejectsWrongLength(t *testing.T) {
	_, err := canonicalMAC("mac_address", "1a2b3")
	require.Error(t, err)

	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "mac_address", nerr.Field, "the error must name the offending field")
	assert.Equal(t, "1a2b3", nerr.Raw, "the error must carry the raw input")
}

func TestCanonicalMACRejectsNonHex(t *testing.T) {
	_, err := canonicalMAC("mac_address", "zz:80:63:aa:bb:01")
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
}

func TestCoerceBool(t *testing.T) {
	for _, word := range []string{"up", "Up", "enabled", "Enable", "yes", "on"} {
		v, err := coerceBool("admin_status", word)
		require.NoError(t, err, word)
		assert.True(t, v, word)
	}
	for _, word := range []string{"down", "Disabled", "disable", "no", "off"} {
		v, err := coerceBool("admin_status", word)
		require.NoError(t, err, word)
		assert.False(t, v, word)
	}

	_, err := coerceBool("admin_status", "flapping")
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr), "unknown status words are an error, not a guess")
}

func TestSpeedToBits(t *testing.T) {
	cases := map[string]int64{
		"1000":      1_000_000_000,
		"1000 Mbps": 1_000_000_000,
		"1 Gbps":    1_000_000_000,
		"1 Gbit/s":  1_000_000_000,
		"100 full":  100_000_000,
		"2.5 Gbps":  2_500_000_000,
		"10 Mbit/s": 10_000_000,
		"":          0,
		"-":         0,
		"auto":      0,
	}
	for raw, want := range cases {
		got, err := speedToBits("speed", raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, "%q", raw)
	}

	_, err := speedToBits("speed", "fast")
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
}

func TestParseSecondsGrammars(t *testing.T) {
	cases := map[string]int64{
		"184449":                     184449,
		"2 days, 03:14:09":           184449,
		"03:14:09":                   11649,
		"0 days 0 hrs 4 mins 9 secs": 249,
		"1 day, 00:00:01":            86401,
		"5 mins":                     300,
	}
	for raw, want := range cases {
		got, err := parseSeconds("uptime", raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, "%q", raw)
	}

	_, err := parseSeconds("uptime", "three days")
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
}

func TestParseOptionalAge(t *testing.T) {
	for _, raw := range []string{"", "-", "n/a", "unknown"} {
		age, err := parseOptionalAge("age", raw)
		require.NoError(t, err, raw)
		assert.Nil(t, age, "unknown age is nil, which is distinct from zero")
	}

	age, err := parseOptionalAge("age", "120")
	require.NoError(t, err)
	require.NotNil(t, age)
	assert.Equal(t, 120.0, *age)

	zero, err := parseOptionalAge("age", "0")
	require.NoError(t, err)
	require.NotNil(t, zero)
	assert.Equal(t, 0.0, *zero)
}

func TestPrefixLength(t *testing.T) {
	n, err := prefixLength("24", FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	n, err = prefixLength("255.255.255.0", FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	n, err = prefixLength("255.255.255.252", FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	n, err = prefixLength("", FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, 32, n, "a missing mask is a host route")

	n, err = prefixLength("", FamilyIPv6)
	require.NoError(t, err)
	assert.Equal(t, 128, n)

	_, err = prefixLength("255.0.255.0", FamilyIPv4)
	require.Error(t, err, "non-contiguous netmasks are rejected")

	_, err = prefixLength("33", FamilyIPv4)
	require.Error(t, err)

	n, err = prefixLength("64", FamilyIPv6)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
}

func TestNormalizeFactsMandatoryFields(t *testing.T) {
	rec := &parse.FactsRecord{
		Model:     "GRS1042-6T6Z-L2A",
		Serial:    "942135-001",
		OSVersion: "HiOS-3S-09.4.04",
		Hostname:  "sw-core-1",
		Uptime:    "2 days, 03:14:09",
	}
	facts, err := normalizeFacts(rec, []string{"1/1", "1/2"})
	require.NoError(t, err)

	assert.Equal(t, Vendor, facts.Vendor)
	assert.Equal(t, "sw-core-1", facts.Hostname)
	assert.Equal(t, "sw-core-1", facts.FQDN, "fqdn falls back to the hostname")
	assert.Equal(t, int64(184449), facts.UptimeSeconds)
	assert.Equal(t, []string{"1/1", "1/2"}, facts.InterfaceList)

	rec.Uptime = "soon"
	_, err = normalizeFacts(rec, nil)
	require.Error(t, err, "facts are all-or-nothing")
}

func TestNormalizeInterfacesSkipsBadRows(t *testing.T) {
	recs := []parse.InterfaceRecord{
		{Name: "1/1", Admin: "up", Oper: "up", Speed: "1000", MAC: "00:80:63:aa:bb:01"},
		{Name: "1/2", Admin: "up", Oper: "up", Speed: "1000", MAC: "1a2b3"},
	}
	out, err := normalizeInterfaces(recs)
	require.NoError(t, err, "a bad row is skipped while usable rows remain")
	require.Len(t, out, 1)

	iface := out["1/1"]
	assert.True(t, iface.AdminUp)
	assert.True(t, iface.OperUp)
	assert.Equal(t, int64(1_000_000_000), iface.SpeedBps)
	assert.Equal(t, "00:80:63:aa:bb:01", iface.MAC)
}

func TestNormalizeInterfacesAllRowsBad(t *testing.T) {
	recs := []parse.InterfaceRecord{
		{Name: "1/1", Admin: "flapping", Oper: "up"},
	}
	_, err := normalizeInterfaces(recs)
	require.Error(t, err, "zero usable rows surfaces the first failure")

	var nerr *NormalizationError
	assert.True(t, errors.As(err, &nerr))
}

func TestNormalizeInterfaceLastFlapped(t *testing.T) {
	out, err := normalizeInterfaces([]parse.InterfaceRecord{
		{Name: "1/1", Admin: "up", Oper: "up", Speed: "1000", LastFlap: "0 days 0 hrs 4 mins 9 secs"},
		{Name: "1/2", Admin: "up", Oper: "up", Speed: "1000", LastFlap: "-"},
	})
	require.NoError(t, err)

	require.NotNil(t, out["1/1"].LastFlapped)
	assert.Equal(t, 249*time.Second, *out["1/1"].LastFlapped)
	assert.Nil(t, out["1/2"].LastFlapped)
}

func TestNormalizeInterfaceLastFlappedMalformed(t *testing.T) {
	logger.GetLogger().SetLevel(logrus.DebugLevel)
	defer logger.GetLogger().SetLevel(logrus.InfoLevel)
	hook := logrustest.NewLocal(logger.GetLogger())
	defer hook.Reset()

	out, err := normalizeInterfaces([]parse.InterfaceRecord{
		{Name: "1/1", Admin: "up", Oper: "up", Speed: "1000", LastFlap: "soon"},
	})
	require.NoError(t, err, "a broken last change value never fails the row")
	assert.Nil(t, out["1/1"].LastFlapped)

	require.NotEmpty(t, hook.Entries, "the discarded value is logged")
	assert.Contains(t, hook.LastEntry().Message, "last change")
	assert.Equal(t, "1/1", hook.LastEntry().Data["port"])
}

func TestNormalizeBindingsUniqueness(t *testing.T) {
	recs := []parse.IPBindingRecord{
		{Interface: "1/1", Address: "10.0.4.2", Prefix: "24"},
		{Interface: "1/1", Address: "10.0.4.2", Prefix: "24"},
		{Interface: "1/1", Address: "fe80::1", Prefix: "64"},
	}
	out, err := normalizeBindings(recs)
	require.NoError(t, err)
	require.Len(t, out["1/1"], 2, "duplicate (family, address) pairs collapse to one binding")

	assert.Equal(t, FamilyIPv4, out["1/1"][0].Family)
	assert.Equal(t, 24, out["1/1"][0].PrefixLength)
	assert.Equal(t, FamilyIPv6, out["1/1"][1].Family)
	assert.Equal(t, 64, out["1/1"][1].PrefixLength)
}

func TestNormalizeARP(t *testing.T) {
	age := "120"
	recs := []parse.ARPRecord{
		{Interface: "1/1", IP: "10.0.4.1", MAC: "00:80:63:11:22:33", Age: age},
		{Interface: "", IP: "10.0.4.9", MAC: "00:80:63:11:22:44", Age: "-"},
	}
	out, err := normalizeARP(recs)
	require.NoError(t, err)
	require.Len(t, out, 2)

	entry := out["1/1|10.0.4.1"]
	assert.Equal(t, "00:80:63:11:22:33", entry.MAC)
	require.NotNil(t, entry.AgeSeconds)
	assert.Equal(t, 120.0, *entry.AgeSeconds)

	bare := out["10.0.4.9"]
	assert.Equal(t, "10.0.4.9", bare.IP, "entries without an interface are keyed by address alone")
	assert.Nil(t, bare.AgeSeconds)
}

func TestNormalizeARPEmptyInput(t *testing.T) {
	out, err := normalizeARP(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
