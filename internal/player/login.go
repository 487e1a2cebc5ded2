package player

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/storage"
)

const (
	maxPasswordTries  = 3
	minPasswordLength = 4
)

type loginFlow struct {
	accounts storage.Storer[*game.Account]
}

func (f *loginFlow) Run(p *Prompter) (*game.Account, error) {
	if err := p.writef("Welcome to Waypoint!\n"); err != nil {
		return nil, err
	}

	for {
		name, err := p.Prompt("By what name do you wish to be known? ",
			WithValidator(func(str string) (bool, string) {
				if err := game.ValidateName(str); err != nil {
					return false, "Invalid name, please try another.\n"
				}
				return true, ""
			}),
		)
		if err != nil {
			return nil, err
		}

		acct := f.accounts.Get(game.AccountKey(name))

		// Must be a new account
		if acct == nil {
			acct, err = f.newAccount(p, name)
			if err != nil {
				return nil, err
			}
			if acct == nil {
				continue
			}
			return acct, nil
		}

		_, err = p.Prompt("Password: ", WithMaxTries(maxPasswordTries), WithValidator(
			func(str string) (bool, string) {
				if acct.CheckPassword(str) != nil {
					return false, "Wrong password.\n"
				}
				return true, ""
			},
		))
		if err != nil {
			return nil, err
		}

		return acct, nil
	}
}

func (f *loginFlow) newAccount(p *Prompter, name string) (*game.Account, error) {
	ok, err := p.PromptYN(fmt.Sprintf("Did I get that right, %s (Y/N)? ", name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	for {
		passOne, err := p.Prompt(fmt.Sprintf("Give me a password for %s: ", name), WithValidator(
			func(str string) (bool, string) {
				if len(str) < minPasswordLength || strings.EqualFold(str, name) {
					return false, "Illegal Password.\n"
				}
				return true, ""
			},
		))
		if err != nil {
			return nil, err
		}

		passTwo, err := p.Prompt("Please retype password: ")
		if err != nil {
			return nil, err
		}

		if passOne != passTwo {
			if err := p.writef("Passwords don't match... start over.\n"); err != nil {
				return nil, err
			}
			continue
		}

		acct, err := game.NewAccount(name, passOne)
		if err != nil {
			return nil, fmt.Errorf("creating account: %w", err)
		}
		if err := f.accounts.Save(game.AccountKey(name), acct); err != nil {
			return nil, fmt.Errorf("saving account: %w", err)
		}
		return acct, nil
	}
}
