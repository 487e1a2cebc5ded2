package player

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrTooManyTries = errors.New("too many tries")

type promptValidator func(string) (bool, string)

type promptConfig struct {
	tries     int
	validator promptValidator
}

type promptOption func(*promptConfig)

func WithValidator(v promptValidator) promptOption {
	return func(cfg *promptConfig) {
		cfg.validator = v
	}
}

func WithMaxTries(i int) promptOption {
	return func(cfg *promptConfig) {
		cfg.tries = i
	}
}

// Prompter asks questions over a connection. A session keeps one Prompter
// for its whole life because the reader may hold input typed ahead.
type Prompter struct {
	rw io.ReadWriter
	br *bufio.Reader
}

func NewPrompter(rw io.ReadWriter) *Prompter {
	return &Prompter{
		rw: rw,
		br: bufio.NewReader(rw),
	}
}

// Write sends text to the connection unchanged.
func (p *Prompter) Write(b []byte) (int, error) {
	return p.rw.Write(b)
}

// Reader is the buffered side of the connection, for use once prompting is
// over.
func (p *Prompter) Reader() io.Reader {
	return p.br
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.br.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompter) Prompt(prompt string, opts ...promptOption) (string, error) {
	config := &promptConfig{}
	for _, opt := range opts {
		opt(config)
	}

	tries := 0
	for {
		_, err := p.rw.Write([]byte(prompt))
		if err != nil {
			return "", err
		}

		input, err := p.readLine()
		if err != nil {
			return "", err
		}
		input = strings.TrimSpace(input)

		if config.validator != nil {
			ok, msg := config.validator(input)
			if !ok {
				if msg != "" {
					if _, err := p.rw.Write([]byte(msg)); err != nil {
						return "", err
					}
				}

				tries++
				if config.tries > 0 && config.tries == tries {
					_, _ = p.rw.Write([]byte("Too many tries.\n"))
					return "", ErrTooManyTries
				}

				continue
			}
		}

		return input, nil
	}
}

func (p *Prompter) PromptYN(prompt string) (bool, error) {
	str, err := p.Prompt(prompt, WithValidator(
		func(str string) (bool, string) {
			switch strings.ToLower(str) {
			case "y", "yes", "n", "no":
				return true, ""
			default:
				return false, "Enter 'yes' or 'no'.\n"
			}
		},
	))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(str) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompter) writef(format string, args ...any) error {
	_, err := fmt.Fprintf(p.rw, format, args...)
	return err
}
