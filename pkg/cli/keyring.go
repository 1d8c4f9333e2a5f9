package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/99designs/keyring"
	"golang.org/x/term"
	"gopkg.in/macaroon.v2"
)

const (
	keyringServiceName     = "org.onionbridge"
	keyringMacaroonService = "lndMacaroon"
	keyringDirectory       = "~/.onionbridge_keys"
)

type backendType struct {
	config *Config
}

func (b backendType) String() string {
	if b.config == nil || len(b.config.Backend.AllowedBackends) == 0 {
		return string(keyring.InvalidBackend)
	}
	return string(b.config.Backend.AllowedBackends[0])
}

func (b backendType) Set(v string) error {
	value := keyring.BackendType(v)
	if b.config == nil {
		return fmt.Errorf("invalid backendType")
	}
	if v == "" {
		return nil
	}
	for _, name := range keyring.AvailableBackends() {
		if name == value {
			b.config.Backend.AllowedBackends = []keyring.BackendType{name}
			return nil
		}
	}
	return fmt.Errorf("unsupported credential storage")
}

func (c *Config) getPassword(prompt string) (string, error) {
	if c.password != nil && *c.password != "" {
		return *c.password, nil
	}

	var w io.Writer
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fd = int(os.Stderr.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("no terminal output available for password prompt")
		}
		w = os.Stderr
	} else {
		w = os.Stdout
	}

	fmt.Fprintf(w, "%s: ", prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	password := string(b)
	c.password = &password
	return password, nil
}

func (c *Config) openKeyring() (keyring.Keyring, error) {
	keyring.Debug = c.Debug
	open := c.open
	if open == nil {
		open = keyring.Open
	}
	return open(c.Backend)
}

func (c *Config) fullMacaroonName() string {
	return keyringMacaroonService + "." + c.KeyringMacaroonName
}

// LoadMacaroonFromKeyring reads the LND macaroon from the system keyring.
//
// The name must match the value provided to SaveMacaroonToKeyring.
func (c *Config) LoadMacaroonFromKeyring() ([]byte, error) {
	kr, err := c.openKeyring()
	if err != nil {
		return nil, err
	}
	item, err := kr.Get(c.fullMacaroonName())
	if err != nil {
		return nil, fmt.Errorf("could not load macaroon: %w", err)
	}
	return item.Data, nil
}

// SaveMacaroonToKeyring writes a binary-encoded macaroon to the system keyring under
// c.KeyringMacaroonName. The macaroon is decoded first so that a corrupt file is never enrolled.
func (c *Config) SaveMacaroonToKeyring(mac []byte) error {
	if c.KeyringMacaroonName == "" {
		return ErrMacaroonRequired
	}
	if err := new(macaroon.Macaroon).UnmarshalBinary(mac); err != nil {
		return fmt.Errorf("invalid macaroon: %w", err)
	}

	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	if err := kr.Set(keyring.Item{
		Key:         c.fullMacaroonName(),
		Data:        mac,
		Label:       "LND macaroon",
		Description: "Macaroon used by onionbridge to authenticate to LND",
	}); err != nil {
		return fmt.Errorf("failed to enroll macaroon in keyring: %w", err)
	}
	return nil
}

// DeleteMacaroon removes the macaroon from the system keyring.
func (c *Config) DeleteMacaroon() error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	return kr.Remove(c.fullMacaroonName())
}
