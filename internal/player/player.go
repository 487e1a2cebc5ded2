package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pixil98/go-waypoint/internal/commands"
	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

type Player struct {
	conn       io.Writer
	input      io.Reader
	uid        string
	name       string
	world      *game.WorldState
	cmdHandler *commands.Handler
	balance    func(uid string) float64

	msgs chan []byte
	done <-chan struct{}
}

func (p *Player) Play(ctx context.Context) error {
	// Start goroutine to read input lines into a channel
	stop := make(chan struct{})
	defer close(stop)
	inputChan := make(chan string)
	inputErrChan := make(chan error, 1)
	go func() {
		defer close(inputChan)
		scanner := bufio.NewScanner(p.input)
		for scanner.Scan() {
			select {
			case inputChan <- scanner.Text():
			case <-stop:
				return
			}
		}
		inputErrChan <- scanner.Err()
	}()

	err := p.writeLine(fmt.Sprintf("Welcome, %s. Type 'help' for a list of commands.", p.name))
	if err != nil {
		return err
	}
	if err := p.prompt(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-p.done:
			if err := p.writeLine("\nDisconnected for inactivity."); err != nil {
				slog.WarnContext(ctx, "failed to write disconnect message to player", "uid", p.uid, "error", err)
			}
			return nil

		case msg := <-p.msgs:
			err = p.writeLine("\n" + string(msg))
			if err != nil {
				return err
			}
			err = p.prompt()
			if err != nil {
				return err
			}

		case line, ok := <-inputChan:
			if !ok {
				// Connection lost.
				select {
				case err := <-inputErrChan:
					return err
				default:
					return nil
				}
			}

			// Any input resets the idle timer.
			p.world.MarkPlayerActive(p.uid)

			parts := strings.Fields(line)
			if len(parts) == 0 {
				if err := p.prompt(); err != nil {
					return err
				}
				continue
			}

			err = p.cmdHandler.Exec(ctx, p.uid, parts[0], parts[1:]...)
			if err != nil {
				var userErr *commands.UserError
				if !errors.As(err, &userErr) {
					// System error - log and disconnect
					return fmt.Errorf("command execution failed: %w", err)
				}
				if err := p.writeLine(userErr.Message); err != nil {
					return err
				}
			}

			// Show replies the command queued before the next prompt.
			if err := p.drain(); err != nil {
				return err
			}

			if p.world.Quitting(p.uid) {
				return p.writeLine("Goodbye!")
			}

			err = p.prompt()
			if err != nil {
				return err
			}
		}
	}
}

func (p *Player) drain() error {
	for {
		select {
		case msg := <-p.msgs:
			if err := p.writeLine(string(msg)); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Player) prompt() error {
	prompt := "> "
	if p.balance != nil {
		prompt = fmt.Sprintf("[%d walk] > ", teleport.BalanceDisplay(p.balance(p.uid)))
	}
	_, err := p.conn.Write([]byte(prompt))
	return err
}

func (p *Player) writeLine(msg string) error {
	_, err := p.conn.Write([]byte(msg + "\n"))
	return err
}
