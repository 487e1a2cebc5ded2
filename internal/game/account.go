package game

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixil98/go-waypoint/internal/storage"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

const positionExtension = "position"

var namePattern = regexp.MustCompile(`^[A-Za-z]{3,16}$`)

// Account is a stored login. Accounts are keyed by AccountKey(Name); the UID
// keys everything else the player owns.
type Account struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	UID      string `json:"uid"`

	Ext storage.ExtensionState `json:"ext,omitempty"`
}

// NewAccount creates an account with a fresh UID and a hashed password.
func NewAccount(name, password string) (*Account, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return &Account{
		Name:     name,
		Password: string(hash),
		UID:      uuid.NewString(),
	}, nil
}

func (a *Account) Validate() error {
	el := errors.NewErrorList()

	el.Add(ValidateName(a.Name))
	if a.Password == "" {
		el.Add(fmt.Errorf("password must be set"))
	}
	if _, err := uuid.Parse(a.UID); err != nil {
		el.Add(fmt.Errorf("uid: %w", err))
	}

	return el.Err()
}

// CheckPassword compares password against the stored hash.
func (a *Account) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)); err != nil {
		return ErrBadPassword
	}
	return nil
}

// LastPosition is where the player logged out, if known.
func (a *Account) LastPosition() (teleport.Position, bool) {
	pos, found, err := storage.Extension[teleport.Position](a.Ext, positionExtension)
	return pos, found && err == nil
}

// SetLastPosition records where the player logged out.
func (a *Account) SetLastPosition(pos teleport.Position) error {
	return a.Ext.Set(positionExtension, pos)
}

// ValidateName checks a player name: 3 to 16 letters.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must be 3 to 16 letters")
	}
	return nil
}

// AccountKey is the store key for a player name.
func AccountKey(name string) string {
	return strings.ToLower(name)
}
