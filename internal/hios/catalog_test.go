package hios

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandCatalog(t *testing.T) {
	assert.Equal(t, []string{"show sysinfo", "show port all"}, commandsFor(capFacts))
	assert.Equal(t, []string{"show running-config", "show startup-config"}, commandsFor(capConfig))
	assert.Equal(t, []string{"show port all"}, commandsFor(capInterfaces))
	assert.Equal(t, []string{"show ip interface"}, commandsFor(capInterfacesIP))
	assert.Equal(t, []string{"show arp"}, commandsFor(capARP))
	assert.Equal(t, []string{"show clock"}, commandsFor(capLiveness))
}

func TestCommandsForUnknownCapabilityPanics(t *testing.T) {
	assert.Panics(t, func() { commandsFor(capability("bgp")) })
}
