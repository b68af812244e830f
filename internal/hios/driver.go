// Package hios drives Hirschmann HiOS switches over a CLI session and
// turns their free-text command output into the canonical data model.
package hios

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hioscollector/hioscollector/internal/hios/parse"
	"github.com/hioscollector/hioscollector/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Session is the transport capability the driver consumes. Implementations
// open an authenticated channel to one device, run a command and hand back
// the raw text. The driver owns sequencing and timeouts; the session owns
// bytes on the wire.
type Session interface {
	Open(ctx context.Context) error
	Send(ctx context.Context, command string) (string, error)
	Close() error
}

// Options tune one driver instance.
type Options struct {
	// CommandTimeout bounds every command round-trip. Zero means the
	// default of 60s, matching the device-side CLI idle window.
	CommandTimeout time.Duration
	// LivenessTimeout bounds the IsAlive probe; it defaults to 5s so a
	// wedged session reports dead quickly.
	LivenessTimeout time.Duration
}

// Driver is the façade over one device: it resolves commands, runs them on
// the session, parses and normalizes. One driver models one logical CLI
// session; a mutex keeps a single command in flight. Independent drivers
// share nothing and may run fully in parallel.
type Driver struct {
	mu        sync.Mutex
	session   Session
	connected bool
	opts      Options
	log       *logrus.Entry
}

// New wires a driver to a session. The driver starts Disconnected.
func New(session Session, opts Options) *Driver {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 60 * time.Second
	}
	if opts.LivenessTimeout <= 0 {
		opts.LivenessTimeout = 5 * time.Second
	}
	return &Driver{
		session: session,
		opts:    opts,
		log:     logger.WithField("driver", "hios"),
	}
}

// Open transitions Disconnected -> Connected. A failed attempt wraps the
// cause in ConnectError and leaves the driver Disconnected; the driver
// never retries on its own.
func (d *Driver) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return nil
	}
	if err := d.session.Open(ctx); err != nil {
		return &ConnectError{Host: sessionHost(d.session), Err: err}
	}
	d.connected = true
	return nil
}

// Close releases the transport handle and transitions to Disconnected.
// It is idempotent: closing an already-closed driver is a no-op.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil
	}
	d.connected = false
	return d.session.Close()
}

// hostNamer is implemented by sessions that know their device address.
type hostNamer interface {
	Host() string
}

func sessionHost(s Session) string {
	if h, ok := s.(hostNamer); ok {
		return h.Host()
	}
	return "device"
}

// send runs one command under the driver lock with a bounded wait. Timeout
// expiry maps to TimeoutError and leaves the state Connected: the session
// is unresponsive, not closed, and recovery is the caller's Close + Open.
// The caller must hold d.mu.
func (d *Driver) send(ctx context.Context, command string, timeout time.Duration) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := d.session.Send(cmdCtx, command)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
			return "", &TimeoutError{Command: command, Timeout: timeout}
		}
		return "", &TransportError{Command: command, Err: err}
	}
	return out, nil
}

// run resolves the capability's command, executes it and parses the output
// with the registered parser. The caller must hold d.mu.
func (d *Driver) run(ctx context.Context, cap capability, op string) (*parse.Records, error) {
	if !d.connected {
		return nil, &NotConnectedError{Op: op}
	}
	command := commandsFor(cap)[0]
	raw, err := d.send(ctx, command, d.opts.CommandTimeout)
	if err != nil {
		return nil, err
	}
	return d.parseAs(parse.Kind(cap), raw)
}

func (d *Driver) parseAs(kind parse.Kind, raw string) (*parse.Records, error) {
	parser, ok := parse.Get(kind)
	if !ok {
		panic("hios: no parser registered for kind " + string(kind))
	}
	recs, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	if recs.SoftSkips > 0 || len(recs.RowErrors) > 0 {
		d.log.WithFields(logrus.Fields{
			"kind":       kind,
			"soft_skips": recs.SoftSkips,
			"row_errors": len(recs.RowErrors),
		}).Warn("partial table output")
	}
	return recs, nil
}

// GetFacts returns the device identity snapshot. Facts are all-or-nothing:
// a mandatory field that cannot be parsed or normalized fails the call.
func (d *Driver) GetFacts(ctx context.Context) (*DeviceFacts, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil, &NotConnectedError{Op: "GetFacts"}
	}

	cmds := commandsFor(capFacts)
	sysRaw, err := d.send(ctx, cmds[0], d.opts.CommandTimeout)
	if err != nil {
		return nil, err
	}
	sysRecs, err := d.parseAs(parse.KindFacts, sysRaw)
	if err != nil {
		return nil, err
	}

	portRaw, err := d.send(ctx, cmds[1], d.opts.CommandTimeout)
	if err != nil {
		return nil, err
	}
	portRecs, err := d.parseAs(parse.KindInterfaces, portRaw)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(portRecs.Interfaces))
	for _, rec := range portRecs.Interfaces {
		names = append(names, rec.Name)
	}

	return normalizeFacts(sysRecs.Facts, names)
}

// GetConfig returns the running and startup configuration verbatim. The
// candidate blob is always empty on this device class.
func (d *Driver) GetConfig(ctx context.Context) (*ConfigSnapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil, &NotConnectedError{Op: "GetConfig"}
	}

	cmds := commandsFor(capConfig)
	snapshot := &ConfigSnapshot{}
	for i, target := range []*string{&snapshot.Running, &snapshot.Startup} {
		raw, err := d.send(ctx, cmds[i], d.opts.CommandTimeout)
		if err != nil {
			return nil, err
		}
		recs, err := d.parseAs(parse.KindConfig, raw)
		if err != nil {
			return nil, err
		}
		*target = recs.Config.Text
	}
	return snapshot, nil
}

// GetInterfaces returns the port table keyed by interface name.
func (d *Driver) GetInterfaces(ctx context.Context) (map[string]Interface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	recs, err := d.run(ctx, capInterfaces, "GetInterfaces")
	if err != nil {
		return nil, err
	}
	return normalizeInterfaces(recs.Interfaces)
}

// GetInterfacesIP returns IP bindings grouped by interface name.
func (d *Driver) GetInterfacesIP(ctx context.Context) (map[string][]InterfaceIPBinding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	recs, err := d.run(ctx, capInterfacesIP, "GetInterfacesIP")
	if err != nil {
		return nil, err
	}
	return normalizeBindings(recs.Bindings)
}

// GetARPTable returns the ARP snapshot keyed by "interface|ip".
func (d *Driver) GetARPTable(ctx context.Context) (map[string]ARPEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	recs, err := d.run(ctx, capARP, "GetARPTable")
	if err != nil {
		return nil, err
	}
	return normalizeARP(recs.ARP)
}

// IsAlive probes the session with a low-cost command round-trip. It never
// returns an error: a Disconnected driver, a transport failure and a
// timeout all collapse to Alive=false.
func (d *Driver) IsAlive(ctx context.Context) LivenessResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return LivenessResult{Alive: false}
	}
	_, err := d.send(ctx, commandsFor(capLiveness)[0], d.opts.LivenessTimeout)
	if err != nil {
		d.log.Debugf("liveness probe failed: %v", err)
		return LivenessResult{Alive: false}
	}
	return LivenessResult{Alive: true}
}
