package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/monshunter/sshxfer/pkg/log"
	"github.com/monshunter/sshxfer/pkg/transfer"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 3 * time.Second
	defaultTimeout    = 15 * time.Second

	sudoCheckCommand = "sudo -n true"
)

// Client is a thin wrapper around an SSH connection used to check a host
// before the external ssh/rsync binaries take over
type Client struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyFile  string

	// Attempts is the number of dial attempts for connection errors
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration

	client *ssh.Client
}

// NewClient creates a client for the given connection parameters
func NewClient(conn transfer.Connection) *Client {
	return &Client{
		Host:       conn.Host,
		Port:       conn.Port,
		User:       conn.Username,
		Password:   conn.Password,
		KeyFile:    conn.KeyFile,
		Attempts:   defaultAttempts,
		RetryDelay: defaultRetryDelay,
		Timeout:    defaultTimeout,
	}
}

func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	var auth []ssh.AuthMethod

	if c.KeyFile != "" {
		key, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, transfer.ClassifyLocal("read key file", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			var missing *ssh.PassphraseMissingError
			if errors.As(err, &missing) {
				return nil, transfer.NewError(transfer.KindAuthentication, "parse key file",
					fmt.Errorf("%s is passphrase protected", c.KeyFile))
			}
			return nil, transfer.NewError(transfer.KindAuthentication, "parse key file", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
		auth = append(auth, ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = c.Password
			}
			return answers, nil
		}))
	}

	return auth, nil
}

// Connect dials and authenticates. Connection errors are retried,
// authentication errors are returned immediately.
func (c *Client) Connect(ctx context.Context) error {
	auth, err := c.authMethods()
	if err != nil {
		return err
	}

	config := &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.Timeout,
	}

	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	attempts := max(c.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := c.dial(ctx, addr, config)
		if err == nil {
			c.client = client
			log.Debugf("ssh connection to %s established", addr)
			return nil
		}
		lastErr = err
		if transfer.KindOf(err) != transfer.KindConnectivity || attempt == attempts {
			break
		}

		log.Warnf("ssh connection to %s failed: %v, retrying (%d/%d)...", addr, err, attempt, attempts)
		select {
		case <-time.After(c.RetryDelay):
		case <-ctx.Done():
			return transfer.NewError(transfer.KindConnectivity, "connect", ctx.Err())
		}
	}
	return lastErr
}

func (c *Client) dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: c.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transfer.NewError(transfer.KindConnectivity, "connect", err)
	}

	if c.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(c.Timeout))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		if isAuthError(err) {
			return nil, transfer.NewError(transfer.KindAuthentication, "connect", err)
		}
		return nil, transfer.NewError(transfer.KindConnectivity, "connect", err)
	}
	conn.SetDeadline(time.Time{})

	return ssh.NewClient(sshConn, chans, reqs), nil
}

func isAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain")
}

// Close closes the SSH connection
func (c *Client) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// RunCommand runs a command on the remote host and returns its combined
// output. A non-zero exit status is returned as a remote-command error.
func (c *Client) RunCommand(ctx context.Context, command string) (string, error) {
	if c.client == nil {
		if err := c.Connect(ctx); err != nil {
			return "", err
		}
		defer c.Close()
	}

	session, err := c.client.NewSession()
	if err != nil {
		return "", transfer.NewError(transfer.KindConnectivity, "open session", err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(command)
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return string(output), &transfer.Error{
				Kind:     transfer.KindRemoteCommand,
				Step:     command,
				ExitCode: exitErr.ExitStatus(),
				Detail:   strings.TrimSpace(string(output)),
				Err:      err,
			}
		}
		return string(output), transfer.NewError(transfer.KindConnectivity, command, err)
	}

	return string(output), nil
}

// CanSudo reports whether the user may run sudo without a password
func (c *Client) CanSudo(ctx context.Context) (bool, error) {
	if c.User == "root" {
		return true, nil
	}
	_, err := c.RunCommand(ctx, sudoCheckCommand)
	if err == nil {
		return true, nil
	}
	if transfer.KindOf(err) == transfer.KindRemoteCommand {
		return false, nil
	}
	return false, err
}
