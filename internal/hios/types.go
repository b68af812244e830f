package hios

import "time"

// Vendor is fixed for every device this driver talks to.
const Vendor = "Hirschmann"

// DeviceFacts is an immutable snapshot of device identity, built fresh on
// every GetFacts call.
type DeviceFacts struct {
	Vendor        string   `json:"vendor"`
	Model         string   `json:"model"`
	SerialNumber  string   `json:"serial_number"`
	OSVersion     string   `json:"os_version"`
	Hostname      string   `json:"hostname"`
	FQDN          string   `json:"fqdn"`
	UptimeSeconds int64    `json:"uptime"`
	InterfaceList []string `json:"interface_list"`
}

// Interface is one switch port in canonical form. SpeedBps is always
// bits per second regardless of the textual unit the CLI printed.
// LastFlapped is nil when the device reports no last-change time.
type Interface struct {
	Name        string         `json:"name"`
	AdminUp     bool           `json:"admin_up"`
	OperUp      bool           `json:"oper_up"`
	SpeedBps    int64          `json:"speed_bps"`
	MTU         int            `json:"mtu"`
	MAC         string         `json:"mac"`
	LastFlapped *time.Duration `json:"last_flapped,omitempty"`
}

// IP address families used by InterfaceIPBinding.
const (
	FamilyIPv4 = "ipv4"
	FamilyIPv6 = "ipv6"
)

// InterfaceIPBinding is one address configured on an interface. An
// interface may carry multiple bindings, but never two with the same
// (family, address) pair.
type InterfaceIPBinding struct {
	Interface    string `json:"interface"`
	Family       string `json:"family"`
	Address      string `json:"address"`
	PrefixLength int    `json:"prefix_length"`
}

// ARPEntry is one row of the device ARP table. AgeSeconds is nil when the
// device reports the age as unknown; that is distinct from an age of 0.
type ARPEntry struct {
	Interface  string   `json:"interface"`
	IP         string   `json:"ip"`
	MAC        string   `json:"mac"`
	AgeSeconds *float64 `json:"age,omitempty"`
}

// ConfigSnapshot holds the three configuration blobs verbatim, since
// downstream consumers diff them byte-for-byte. Candidate is always empty:
// HiOS has no candidate-config workflow.
type ConfigSnapshot struct {
	Running   string `json:"running"`
	Startup   string `json:"startup"`
	Candidate string `json:"candidate"`
}

// LivenessResult reports whether a low-cost command round-trip succeeded
// within the bounded timeout.
type LivenessResult struct {
	Alive bool `json:"is_alive"`
}
