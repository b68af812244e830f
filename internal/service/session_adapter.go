package service

import (
	"context"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/util"
	"github.com/hioscollector/hioscollector/pkg/ssh"
)

// SessionAdapter bridges the SSH client to the driver's Session contract
// and scrubs raw output to UTF-8 before it reaches the parsers.
type SessionAdapter struct {
	client *ssh.Client
	info   *ssh.ConnectionInfo
}

// NewSessionAdapter builds a session for one device endpoint.
func NewSessionAdapter(cfg *config.Config, info *ssh.ConnectionInfo) *SessionAdapter {
	if info.Port <= 0 {
		info.Port = cfg.SSH.DefaultPort
	}
	return &SessionAdapter{
		client: ssh.NewClient(&ssh.Config{
			ConnectTimeout: cfg.SSH.ConnectTimeout,
			KeepAlive:      cfg.SSH.KeepAlive,
		}),
		info: info,
	}
}

// Open dials and authenticates the device connection.
func (s *SessionAdapter) Open(ctx context.Context) error {
	return s.client.Connect(ctx, s.info)
}

// Send runs one command and returns its output as UTF-8 text.
func (s *SessionAdapter) Send(ctx context.Context, command string) (string, error) {
	out, err := s.client.Execute(ctx, command)
	if err != nil {
		return "", err
	}
	return util.EnsureUTF8(out), nil
}

// Close releases the underlying connection.
func (s *SessionAdapter) Close() error {
	return s.client.Close()
}

// Host names the device endpoint for error reporting.
func (s *SessionAdapter) Host() string {
	return s.info.Host
}
