package parse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipRow(cells ...string) string {
	return fmt.Sprintf("%-12s%-20s%s", cells[0], cells[1], cells[2])
}

func TestIPParseSplitMaskColumn(t *testing.T) {
	raw := ipRow("Interface", "IP Address", "Netmask") + "\n" +
		strings.Repeat("-", 50) + "\n" +
		ipRow("1/1", "10.0.4.2", "255.255.255.0") + "\n" +
		ipRow("vlan/1", "192.168.1.5", "24") + "\n"

	recs, err := ipParser{}.Parse(raw)
	require.NoError(t, err)
	require.Len(t, recs.Bindings, 2)

	assert.Equal(t, "1/1", recs.Bindings[0].Interface)
	assert.Equal(t, "10.0.4.2", recs.Bindings[0].Address)
	assert.Equal(t, "255.255.255.0", recs.Bindings[0].Prefix)

	assert.Equal(t, "vlan/1", recs.Bindings[1].Interface, "non-port interfaces keep their name")
	assert.Equal(t, "24", recs.Bindings[1].Prefix)
}

func TestIPParseSlashNotation(t *testing.T) {
	raw := ipRow("Interface", "IP Address", "Netmask") + "\n" +
		ipRow("1/1", "10.0.4.2/24", "") + "\n"

	recs, err := ipParser{}.Parse(raw)
	require.NoError(t, err)
	require.Len(t, recs.Bindings, 1)
	assert.Equal(t, "10.0.4.2", recs.Bindings[0].Address)
	assert.Equal(t, "24", recs.Bindings[0].Prefix)
}

func TestIPParseNoHeaderMeansNothingBound(t *testing.T) {
	recs, err := ipParser{}.Parse("No IP interfaces are configured.\n")
	require.NoError(t, err)
	assert.Empty(t, recs.Bindings)
}

func TestIPParseBadAddressIsRowError(t *testing.T) {
	raw := ipRow("Interface", "IP Address", "Netmask") + "\n" +
		ipRow("1/1", "not-an-address", "24") + "\n" +
		ipRow("1/2", "10.0.4.3", "24") + "\n"

	recs, err := ipParser{}.Parse(raw)
	require.NoError(t, err)
	assert.Len(t, recs.Bindings, 1)
	assert.Len(t, recs.RowErrors, 1)
}
