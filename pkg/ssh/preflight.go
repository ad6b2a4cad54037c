package ssh

import (
	"context"

	"github.com/monshunter/sshxfer/pkg/log"
	"github.com/monshunter/sshxfer/pkg/transfer"
)

// Checker checks a remote host before a transfer starts
type Checker interface {
	Probe(ctx context.Context, conn transfer.Connection) error
	ResolveSudoer(ctx context.Context, conn transfer.Connection) (string, error)
}

// Preflight is the Checker backed by Client
type Preflight struct {
	// newClient is replaced in tests to shorten timeouts
	newClient func(conn transfer.Connection) *Client
}

// NewPreflight creates a checker using default dial settings
func NewPreflight() *Preflight {
	return &Preflight{newClient: NewClient}
}

// Probe connects and authenticates with the transfer's credentials
func (p *Preflight) Probe(ctx context.Context, conn transfer.Connection) error {
	client := p.newClient(conn)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	log.Infof("Preflight: %s reachable on port %d", conn.Login(), conn.Port)
	return nil
}

// ResolveSudoer turns "auto" into "true" or "false" by checking
// passwordless sudo on the host. Other values are returned unchanged.
func (p *Preflight) ResolveSudoer(ctx context.Context, conn transfer.Connection) (string, error) {
	if conn.Sudoer != transfer.SudoerAuto {
		return conn.Sudoer, nil
	}
	if conn.Username == "root" {
		return transfer.SudoerFalse, nil
	}

	client := p.newClient(conn)
	ok, err := client.CanSudo(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		log.Debugf("%s can run sudo without a password", conn.Login())
		return transfer.SudoerTrue, nil
	}
	log.Debugf("%s cannot run sudo without a password", conn.Login())
	return transfer.SudoerFalse, nil
}
