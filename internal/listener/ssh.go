package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	sshServerVersion    = "SSH-2.0-Waypoint"
	sshHandshakeTimeout = 30 * time.Second
	sshMaxAuthTries     = 3

	// accountPermission carries the authenticated account name from the
	// handshake to the session.
	accountPermission = "waypoint-account"
)

var errPasswordRequired = errors.New("password required")

// SshListener serves sessions over ssh. When the session runner knows about
// accounts, an ssh user naming an existing account must give its password
// and skips the login prompts. Any other user logs in inside the session.
type SshListener struct {
	port   uint16
	cm     *ConnectionManager
	config *ssh.ServerConfig
}

func NewSshListener(port uint16, cm *ConnectionManager, hostKey ssh.Signer) *SshListener {
	config := newSshServerConfig(cm)
	config.AddHostKey(hostKey)

	return &SshListener{
		port:   port,
		cm:     cm,
		config: config,
	}
}

func newSshServerConfig(cm *ConnectionManager) *ssh.ServerConfig {
	config := &ssh.ServerConfig{
		ServerVersion: sshServerVersion,
		MaxAuthTries:  sshMaxAuthTries,
		NoClientAuth:  true,
	}

	accounts, ok := cm.Accounts()
	if !ok {
		return config
	}

	config.NoClientAuthCallback = func(md ssh.ConnMetadata) (*ssh.Permissions, error) {
		if accounts.HasAccount(md.User()) {
			return nil, errPasswordRequired
		}
		return nil, nil
	}
	config.PasswordCallback = func(md ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
		if err := accounts.CheckPassword(md.User(), string(password)); err != nil {
			return nil, err
		}
		return &ssh.Permissions{
			Extensions: map[string]string{accountPermission: md.User()},
		}, nil
	}
	return config
}

func (l *SshListener) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	slog.InfoContext(ctx, "listening for ssh", "port", l.port)

	connCtx, cancelConns := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup

	// Close the listener when the parent context is canceled
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				cancelConns()
				wg.Wait()
				return nil
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.handleConnection(connCtx, conn)
		}()
	}
}

func (l *SshListener) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Drop clients that never finish the handshake.
	_ = conn.SetDeadline(time.Now().Add(sshHandshakeTimeout))
	sshConn, chans, reqs, err := ssh.NewServerConn(conn, l.config)
	if err != nil {
		slog.WarnContext(ctx, "ssh handshake", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	_ = conn.SetDeadline(time.Time{})
	defer sshConn.Close()

	account := ""
	if sshConn.Permissions != nil {
		account = sshConn.Permissions.Extensions[accountPermission]
	}
	slog.InfoContext(ctx, "ssh connection established",
		"remote", conn.RemoteAddr(), "user", sshConn.User(), "authenticated", account != "")

	stop := context.AfterFunc(ctx, func() {
		sshConn.Close()
	})
	defer stop()

	go ssh.DiscardRequests(reqs)

	// One session per connection; further channels are refused.
	served := false
	for newChan := range chans {
		if newChan.ChannelType() != "session" || served {
			newChan.Reject(ssh.UnknownChannelType, "only one session channel is supported")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.ErrorContext(ctx, "accepting ssh channel", "error", err)
			continue
		}
		served = true

		if !waitForShell(ctx, requests) {
			ch.Close()
			return
		}
		l.serve(ctx, newCRLFReadWriter(ch), account)
		ch.Close()
		return
	}
}

// waitForShell answers the channel requests until the client asks for a
// shell. Clients do not forward input before the shell reply. It reports
// false if the channel closes or ctx ends first.
func waitForShell(ctx context.Context, requests <-chan *ssh.Request) bool {
	shellReady := make(chan struct{})
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ready := false
		for req := range requests {
			switch {
			case req.Type == "shell" && !ready:
				req.Reply(true, nil)
				ready = true
				close(shellReady)
			default:
				// Refusing a pty keeps local echo and line buffering on the client.
				req.Reply(false, nil)
			}
		}
	}()

	select {
	case <-shellReady:
		return true
	case <-closed:
		select {
		case <-shellReady:
			return true
		default:
			return false
		}
	case <-ctx.Done():
		return false
	}
}

func (l *SshListener) serve(ctx context.Context, rw io.ReadWriter, account string) {
	if account != "" {
		l.cm.AcceptAccount(ctx, rw, account)
		return
	}
	l.cm.AcceptConnection(ctx, rw)
}
