package listener

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
	"golang.org/x/crypto/ssh"
)

// accountRunner says which kind of session it was asked to run.
type accountRunner struct {
	passwords map[string]string
}

func (r *accountRunner) HasAccount(name string) bool {
	_, ok := r.passwords[strings.ToLower(name)]
	return ok
}

func (r *accountRunner) CheckPassword(name, password string) error {
	if pw, ok := r.passwords[strings.ToLower(name)]; !ok || pw != password {
		return errors.New("wrong password")
	}
	return nil
}

func (r *accountRunner) RunSession(ctx context.Context, conn io.ReadWriter) error {
	_, err := io.WriteString(conn, "login prompts\n")
	return err
}

func (r *accountRunner) RunAccountSession(ctx context.Context, conn io.ReadWriter, name string) error {
	_, err := io.WriteString(conn, "playing as "+name+"\n")
	return err
}

func testHostKey(t *testing.T) ssh.Signer {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		t.Fatalf("creating signer: %v", err)
	}
	return signer
}

func TestSshListener_Sessions(t *testing.T) {
	tests := map[string]struct {
		runner  SessionRunner
		user    string
		auth    []ssh.AuthMethod
		expLine string
		expErr  string
	}{
		"account with password skips login": {
			runner:  &accountRunner{passwords: map[string]string{"dave": "hunter22"}},
			user:    "Dave",
			auth:    []ssh.AuthMethod{ssh.Password("hunter22")},
			expLine: "playing as Dave\r\n",
		},
		"unknown user logs in the session": {
			runner:  &accountRunner{passwords: map[string]string{"dave": "hunter22"}},
			user:    "guest",
			expLine: "login prompts\r\n",
		},
		"account needs its password": {
			runner: &accountRunner{passwords: map[string]string{"dave": "hunter22"}},
			user:   "dave",
			auth:   []ssh.AuthMethod{ssh.Password("letmein")},
			expErr: "unable to authenticate",
		},
		"runner without accounts": {
			runner:  echoRunner{},
			user:    "dave",
			auth:    []ssh.AuthMethod{ssh.Password("hunter22")},
			expLine: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := NewSshListener(0, NewConnectionManager(tt.runner), testHostKey(t))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatalf("listening: %v", err)
			}
			defer ln.Close()

			served := make(chan struct{})
			go func() {
				defer close(served)
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				l.handleConnection(ctx, conn)
			}()

			clientConn, err := net.Dial("tcp", ln.Addr().String())
			if err != nil {
				t.Fatalf("dialing: %v", err)
			}
			defer func() {
				clientConn.Close()
				<-served
			}()

			cc, chans, reqs, err := ssh.NewClientConn(clientConn, "pipe", &ssh.ClientConfig{
				User:            tt.user,
				Auth:            tt.auth,
				HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			})
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("connecting: %v", err)
			}
			client := ssh.NewClient(cc, chans, reqs)
			defer client.Close()

			session, err := client.NewSession()
			if err != nil {
				t.Fatalf("opening session: %v", err)
			}
			stdin, err := session.StdinPipe()
			if err != nil {
				t.Fatalf("stdin: %v", err)
			}
			stdout, err := session.StdoutPipe()
			if err != nil {
				t.Fatalf("stdout: %v", err)
			}
			if err := session.Shell(); err != nil {
				t.Fatalf("requesting shell: %v", err)
			}

			if tt.expLine == "" {
				// The echo runner answers lines until told to quit.
				_, _ = io.WriteString(stdin, "hello\nquit\n")
				got, _ := io.ReadAll(stdout)
				testutil.AssertEqual(t, "output", string(got), "HELLO\r\nGoodbye!\r\n")
				return
			}

			got, err := bufio.NewReader(stdout).ReadString('\n')
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			testutil.AssertEqual(t, "output", got, tt.expLine)
		})
	}
}
