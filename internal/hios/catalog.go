package hios

import "fmt"

// capability names one logical data request the driver supports.
type capability string

const (
	capFacts        capability = "facts"
	capConfig       capability = "config"
	capInterfaces   capability = "interfaces"
	capInterfacesIP capability = "interfaces-ip"
	capARP          capability = "arp"
	capLiveness     capability = "liveness"
)

// HiOS CLI commands, one set per capability. The sysinfo/port pairing for
// facts mirrors what the device needs: identity comes from "show sysinfo",
// the interface list from "show port all".
var commandCatalog = map[capability][]string{
	capFacts:        {"show sysinfo", "show port all"},
	capConfig:       {"show running-config", "show startup-config"},
	capInterfaces:   {"show port all"},
	capInterfacesIP: {"show ip interface"},
	capARP:          {"show arp"},
	capLiveness:     {"show clock"},
}

// commandsFor resolves a capability to its CLI command strings. The façade
// only calls it for supported capabilities, so a miss is a programmer
// error, not a runtime condition.
func commandsFor(c capability) []string {
	cmds, ok := commandCatalog[c]
	if !ok {
		panic(fmt.Sprintf("hios: no commands registered for capability %q", c))
	}
	return cmds
}
