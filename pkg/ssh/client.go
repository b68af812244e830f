package ssh

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Config holds SSH transport settings.
type Config struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
}

// ConnectionInfo identifies one device endpoint.
type ConnectionInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client is a single-device SSH client. Hirschmann switches (like most
// network gear) still negotiate legacy key-exchange and cipher suites, so
// the algorithm lists are widened well beyond the x/crypto defaults.
type Client struct {
	config     *Config
	connection *ssh.Client
	connCancel context.CancelFunc
	mutex      sync.RWMutex
	info       *ConnectionInfo
}

// NewClient creates a client; Connect must be called before use.
func NewClient(config *Config) *Client {
	return &Client{config: config}
}

// Connect dials and authenticates the SSH connection.
func (c *Client) Connect(ctx context.Context, info *ConnectionInfo) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	c.info = info

	sshConfig := &ssh.ClientConfig{
		User:            info.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.config.ConnectTimeout,
		Config: ssh.Config{
			KeyExchanges: []string{
				"diffie-hellman-group14-sha256",
				"diffie-hellman-group14-sha1",
				"diffie-hellman-group1-sha1",
				"diffie-hellman-group-exchange-sha256",
				"ecdh-sha2-nistp256",
				"ecdh-sha2-nistp384",
				"ecdh-sha2-nistp521",
			},
			Ciphers: []string{
				"aes128-ctr",
				"aes192-ctr",
				"aes256-ctr",
				"aes128-gcm@openssh.com",
				"aes128-cbc",
				"3des-cbc",
			},
			MACs: []string{
				"hmac-sha2-256-etm@openssh.com",
				"hmac-sha2-256",
				"hmac-sha1",
				"hmac-sha1-96",
			},
		},
		HostKeyAlgorithms: []string{
			"ssh-rsa",
			"rsa-sha2-256",
			"rsa-sha2-512",
			"ecdsa-sha2-nistp256",
			"ecdsa-sha2-nistp384",
			"ecdsa-sha2-nistp521",
		},
	}

	if info.Password != "" {
		sshConfig.Auth = []ssh.AuthMethod{
			ssh.Password(info.Password),
			// Some HiOS releases only offer keyboard-interactive; answer
			// every prompt with the password.
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = info.Password
				}
				return answers, nil
			}),
		}
	}

	address := fmt.Sprintf("%s:%d", info.Host, info.Port)
	dialer := &net.Dialer{Timeout: c.config.ConnectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	// The handshake gets the same bound as the dial: a device that accepts
	// TCP but stalls the version exchange must not hang Connect.
	if c.config.ConnectTimeout > 0 {
		deadline := time.Now().Add(c.config.ConnectTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = conn.SetDeadline(deadline)
	} else if d, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(d)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SSH connection: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	c.connection = ssh.NewClient(sshConn, chans, reqs)

	// The keepalive loop lives as long as the connection, not as long as
	// the caller's request context.
	connCtx, cancel := context.WithCancel(context.Background())
	c.connCancel = cancel
	go c.keepAlive(connCtx)

	return nil
}

// Host returns the device address this client talks to.
func (c *Client) Host() string {
	if c.info == nil {
		return ""
	}
	return c.info.Host
}

// newSessionWithRetry opens an exec session. Network devices sometimes
// reject the first channel open right after login ("administratively
// prohibited"), so a short backoff is applied.
func (c *Client) newSessionWithRetry() (*ssh.Session, error) {
	c.mutex.RLock()
	conn := c.connection
	c.mutex.RUnlock()
	if conn == nil {
		return nil, fmt.Errorf("SSH connection not established")
	}

	backoffs := []time.Duration{0, 200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}
	var lastErr error
	for _, d := range backoffs {
		if d > 0 {
			time.Sleep(d)
		}
		sess, err := conn.NewSession()
		if err == nil {
			return sess, nil
		}
		lastErr = err
		if !strings.Contains(strings.ToLower(err.Error()), "prohibited") &&
			!strings.Contains(strings.ToLower(err.Error()), "open failed") {
			break
		}
	}
	return nil, lastErr
}

// Execute runs one command in a fresh session and returns its combined
// output. The context bounds the whole round-trip; on expiry the session
// is torn down and ctx.Err() is returned.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	session, err := c.newSessionWithRetry()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	// HiOS expects a terminal even for exec requests.
	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	for _, term := range []string{"vt100", "xterm", "dumb"} {
		if err := session.RequestPty(term, 80, 24, modes); err == nil {
			break
		}
	}

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- result{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return string(res.out), fmt.Errorf("command failed: %w", res.err)
		}
		return string(res.out), nil
	case <-ctx.Done():
		session.Signal(ssh.SIGTERM)
		return "", ctx.Err()
	}
}

// Close tears the connection down. Safe to call repeatedly.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	if c.connection != nil {
		err := c.connection.Close()
		c.connection = nil
		return err
	}
	return nil
}

// IsConnected checks connection health without opening a session, to stay
// inside the device's session-count limit.
func (c *Client) IsConnected() bool {
	c.mutex.RLock()
	conn := c.connection
	c.mutex.RUnlock()
	if conn == nil {
		return false
	}
	_, _, err := conn.SendRequest("keepalive@openssh.com", false, nil)
	return err == nil
}

// keepAlive pings the connection periodically and drops it on failure.
func (c *Client) keepAlive(ctx context.Context) {
	if c.config.KeepAlive <= 0 {
		return
	}

	ticker := time.NewTicker(c.config.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mutex.RLock()
			conn := c.connection
			c.mutex.RUnlock()
			if conn == nil {
				return
			}
			if _, _, err := conn.SendRequest("keepalive@openssh.com", false, nil); err != nil {
				c.mutex.Lock()
				if c.connection != nil {
					_ = c.connection.Close()
					c.connection = nil
				}
				c.mutex.Unlock()
				return
			}
		}
	}
}
