package hios

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a scripted transport: replies maps commands to canned
// output, block makes every Send hang until the context expires.
type fakeSession struct {
	host    string
	openErr error
	replies map[string]string
	sent    []string
	closed  int
	block   bool
}

func (f *fakeSession) Open(ctx context.Context) error { return f.openErr }

func (f *fakeSession) Send(ctx context.Context, command string) (string, error) {
	f.sent = append(f.sent, command)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	out, ok := f.replies[command]
	if !ok {
		return "", fmt.Errorf("unexpected command %q", command)
	}
	return out, nil
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func (f *fakeSession) Host() string { return f.host }

const sysinfoSample = `System Name: sw-core-1
Model: GRS1042-6T6Z-L2A
Serial Number: 942135-001
SW version: HiOS-3S-09.4.04
System Up Time: 2 days, 03:14:09
`

const portSample = `Port 1/1   up   up   1000   00:80:63:aa:bb:01
Port 1/2   up   down 100    00:80:63:aa:bb:02
`

const arpSample = `10.0.4.1 00:80:63:11:22:33 1/1 120
10.0.4.7 00:80:63:44:55:66 1/2 -
`

func openedDriver(t *testing.T, session *fakeSession) *Driver {
	t.Helper()
	d := New(session, Options{})
	require.NoError(t, d.Open(context.Background()))
	return d
}

func TestDriverRequiresOpen(t *testing.T) {
	d := New(&fakeSession{}, Options{})

	_, err := d.GetInterfaces(context.Background())
	var nc *NotConnectedError
	require.True(t, errors.As(err, &nc), "data operations need an open session")
	assert.Equal(t, "GetInterfaces", nc.Op)

	_, err = d.GetFacts(context.Background())
	require.True(t, errors.As(err, &nc))

	_, err = d.GetConfig(context.Background())
	require.True(t, errors.As(err, &nc))
}

func TestDriverOpenFailure(t *testing.T) {
	session := &fakeSession{host: "10.0.4.1", openErr: errors.New("auth failed")}
	d := New(session, Options{})

	err := d.Open(context.Background())
	var cerr *ConnectError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "10.0.4.1", cerr.Host)

	_, err = d.GetARPTable(context.Background())
	var nc *NotConnectedError
	assert.True(t, errors.As(err, &nc), "a failed Open leaves the driver disconnected")
}

func TestDriverCloseIsIdempotent(t *testing.T) {
	session := &fakeSession{replies: map[string]string{}}
	d := openedDriver(t, session)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 1, session.closed, "the second Close is a no-op")

	_, err := d.GetInterfaces(context.Background())
	var nc *NotConnectedError
	assert.True(t, errors.As(err, &nc))
}

func TestDriverTimeoutLeavesSessionConnected(t *testing.T) {
	session := &fakeSession{block: true}
	d := New(session, Options{CommandTimeout: 20 * time.Millisecond})
	require.NoError(t, d.Open(context.Background()))

	_, err := d.GetInterfaces(context.Background())
	var terr *TimeoutError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "show port all", terr.Command)

	// The state stays Connected: the next call fails on the wire again,
	// not with a usage error.
	_, err = d.GetARPTable(context.Background())
	require.True(t, errors.As(err, &terr))
	var nc *NotConnectedError
	assert.False(t, errors.As(err, &nc))
}

func TestDriverTransportError(t *testing.T) {
	session := &fakeSession{replies: map[string]string{}}
	d := openedDriver(t, session)

	_, err := d.GetARPTable(context.Background())
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "show arp", terr.Command)
}

func TestDriverGetFacts(t *testing.T) {
	session := &fakeSession{replies: map[string]string{
		"show sysinfo":  sysinfoSample,
		"show port all": portSample,
	}}
	d := openedDriver(t, session)

	facts, err := d.GetFacts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Hirschmann", facts.Vendor)
	assert.Equal(t, "GRS1042-6T6Z-L2A", facts.Model)
	assert.Equal(t, "942135-001", facts.SerialNumber)
	assert.Equal(t, "HiOS-3S-09.4.04", facts.OSVersion)
	assert.Equal(t, "sw-core-1", facts.Hostname)
	assert.Equal(t, "sw-core-1", facts.FQDN)
	assert.Equal(t, int64(184449), facts.UptimeSeconds)
	assert.Equal(t, []string{"1/1", "1/2"}, facts.InterfaceList)
	assert.Equal(t, []string{"show sysinfo", "show port all"}, session.sent)
}

func TestDriverGetInterfaces(t *testing.T) {
	session := &fakeSession{replies: map[string]string{
		"show port all": portSample,
	}}
	d := openedDriver(t, session)

	ifaces, err := d.GetInterfaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ifaces, 2)

	assert.True(t, ifaces["1/1"].OperUp)
	assert.Equal(t, int64(1_000_000_000), ifaces["1/1"].SpeedBps)
	assert.False(t, ifaces["1/2"].OperUp)
	assert.Equal(t, int64(100_000_000), ifaces["1/2"].SpeedBps)
	assert.Equal(t, "00:80:63:aa:bb:02", ifaces["1/2"].MAC)
}

func TestDriverGetARPTable(t *testing.T) {
	session := &fakeSession{replies: map[string]string{
		"show arp": arpSample,
	}}
	d := openedDriver(t, session)

	entries, err := d.GetARPTable(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entry := entries["1/1|10.0.4.1"]
	assert.Equal(t, "00:80:63:11:22:33", entry.MAC)
	require.NotNil(t, entry.AgeSeconds)
	assert.Equal(t, 120.0, *entry.AgeSeconds)
	assert.Nil(t, entries["1/2|10.0.4.7"].AgeSeconds)
}

func TestDriverGetConfig(t *testing.T) {
	session := &fakeSession{replies: map[string]string{
		"show running-config": "line a\nline b\n",
		"show startup-config": "line a\n",
	}}
	d := openedDriver(t, session)

	snapshot, err := d.GetConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "line a\nline b\n", snapshot.Running)
	assert.Equal(t, "line a\n", snapshot.Startup)
	assert.Empty(t, snapshot.Candidate)
}

func TestDriverIsAliveNeverErrors(t *testing.T) {
	d := New(&fakeSession{}, Options{})
	assert.False(t, d.IsAlive(context.Background()).Alive, "a disconnected driver is not alive")

	session := &fakeSession{replies: map[string]string{
		"show clock": "12:00:00 UTC Aug 23 2026\n",
	}}
	d = openedDriver(t, session)
	assert.True(t, d.IsAlive(context.Background()).Alive)

	blocked := &fakeSession{block: true}
	d = New(blocked, Options{LivenessTimeout: 20 * time.Millisecond})
	require.NoError(t, d.Open(context.Background()))
	assert.False(t, d.IsAlive(context.Background()).Alive, "a wedged session reports dead, not an error")
}
