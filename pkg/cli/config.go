/*
Package cli facilitates building command-line applications that connect to an LND node. It defines
a [Config] type that can be used to register common command-line flags (using the Golang flag
package), environment variable equivalents and positional arguments.

The package uses [keyring]'s platform-agnostic interface for storing the LND macaroon in an
OS-dependent credential store, as an alternative to reading it from a file.

# Examples

	import flag

	config, err := NewConfig()
	if err != nil {
		panic(err)
	}
	config.RegisterCommandLineFlags() // Adds command-line flags for the LND address, TLS certificate, etc.
	flag.Parse()
	if err := config.ApplyArgs(flag.Args()); err != nil {
		panic(err)
	}
	config.ReadFromEnvironment()      // Fills in missing fields using environment variables
	if err := config.Validate(); err != nil {
		panic(err)
	}

	client, err := config.Connect(ctx)
	if err != nil {
		panic(err)
	}
	defer client.Close()

The positional arguments are, in order, the LND address, the TLS certificate file and the macaroon
file. They fill in whatever flags left unset, and take precedence over environment variables when
[Config.ApplyArgs] is called before [Config.ReadFromEnvironment].
*/
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/onionbridge/onionbridge/internal/log"
	"github.com/onionbridge/onionbridge/pkg/lnd"
	"github.com/onionbridge/onionbridge/pkg/signer"
)

// Environment variable names used are used by [Config.ReadFromEnvironment] to set common parameters.
const (
	EnvAddress      = "ONIONBRIDGE_ADDRESS"
	EnvCertFile     = "ONIONBRIDGE_CERT_FILE"
	EnvMacaroonFile = "ONIONBRIDGE_MACAROON_FILE"
	EnvMacaroonName = "ONIONBRIDGE_MACAROON_NAME"
	EnvKeyringType  = "ONIONBRIDGE_KEYRING_TYPE"
	EnvKeyringPass  = "ONIONBRIDGE_KEYRING_PASSWORD"
	EnvKeyringPath  = "ONIONBRIDGE_KEYRING_PATH"
	EnvKeyringDebug = "ONIONBRIDGE_KEYRING_DEBUG"
	EnvVerbose      = "ONIONBRIDGE_VERBOSE"
)

const (
	maxPositionalArgs  = 3
	positionalArgNames = "ADDRESS CERT_FILE MACAROON_FILE"
)

var (
	ErrAddressRequired  = errors.New("LND address not provided")
	ErrCertRequired     = errors.New("LND TLS certificate location not provided")
	ErrMacaroonRequired = errors.New("LND macaroon location not provided")
	ErrTooManyArgs      = fmt.Errorf("too many arguments, expected at most %s", positionalArgNames)
	ErrKeyNotFound      = keyring.ErrKeyNotFound
)

// Config fields determine how the bridge reaches and authenticates to LND.
type Config struct {
	Address             string // host:port of LND's RPC server
	CertFilename        string
	MacaroonFilename    string
	KeyringMacaroonName string // Username for the macaroon in system keyring
	Backend             keyring.Config
	BackendType         backendType
	Debug               bool // Enable keyring debug messages

	ConnectTimeout time.Duration // Timeout for establishing the initial connection
	SignerTimeout  time.Duration // Timeout for each remote signing request

	password *string
	macaroon []byte
	open     func(keyring.Config) (keyring.Keyring, error)
}

func NewConfig() (*Config, error) {
	c := Config{
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			KeyCtlScope:              "user",
		},
		ConnectTimeout: lnd.DefaultConnectTimeout,
		SignerTimeout:  signer.DefaultTimeout,
		open:           keyring.Open,
	}
	c.BackendType = backendType{&c}
	c.Backend.KeychainPasswordFunc = c.getPassword
	c.Backend.FilePasswordFunc = c.getPassword

	return &c, nil
}

// RegisterCommandLineFlags adds c's options to the default flag set.
func (c *Config) RegisterCommandLineFlags() {
	c.RegisterFlags(flag.CommandLine)
}

// RegisterFlags adds c's options to fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Address, "address", "", "LND RPC `host:port`. Defaults to $"+EnvAddress+".")
	fs.StringVar(&c.CertFilename, "cert-file", "", "LND TLS certificate `file`. Defaults to $"+EnvCertFile+".")
	fs.StringVar(&c.MacaroonFilename, "macaroon-file", "", "LND macaroon `file`. Defaults to $"+EnvMacaroonFile+".")
	fs.StringVar(&c.KeyringMacaroonName, "macaroon-name", "", "System keyring `name` for the LND macaroon. Defaults to $"+EnvMacaroonName+".")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", lnd.DefaultConnectTimeout, "Set timeout for establishing initial connection.")
	fs.DurationVar(&c.SignerTimeout, "signer-timeout", signer.DefaultTimeout, "Set timeout for each remote signing request.")

	var names []string
	for _, name := range keyring.AvailableBackends() {
		names = append(names, string(name))
	}
	sort.Strings(names)
	fs.Var(&c.BackendType, "keyring-type", "Keyring `type` ("+strings.Join(names, "|")+"). Defaults to $"+EnvKeyringType+".")
	fs.StringVar(&c.Backend.FileDir, "keyring-file-dir", keyringDirectory, "keyring `directory` for file-backed keyring types")
	fs.BoolVar(&c.Debug, "keyring-debug", false, "Enable keyring debug logging")
}

// ReadFromEnvironment populates c using environment variables. Values that are already populated
// are not overwritten.
//
// Calling ReadFromEnvironment after flag.Parse() (or other initialization method) will prevent the
// environment from overriding explicit command-line parameters and avoid potentially misleading
// debug log messages.
func (c *Config) ReadFromEnvironment() {
	if c.Address == "" {
		c.Address = os.Getenv(EnvAddress)
		log.Debug("Set LND address to '%s'", c.Address)
	}
	if c.CertFilename == "" {
		c.CertFilename = os.Getenv(EnvCertFile)
		log.Debug("Set TLS certificate file to '%s'", c.CertFilename)
	}
	if c.KeyringMacaroonName == "" && c.MacaroonFilename == "" {
		c.KeyringMacaroonName = os.Getenv(EnvMacaroonName)
		log.Debug("Set macaroon name to '%s'", c.KeyringMacaroonName)

		c.MacaroonFilename = os.Getenv(EnvMacaroonFile)
		log.Debug("Set macaroon file to '%s'", c.MacaroonFilename)
	}
	if c.BackendType.String() == string(keyring.InvalidBackend) {
		if err := c.BackendType.Set(os.Getenv(EnvKeyringType)); err == nil {
			log.Debug("Set keyring type to '%s'", c.BackendType)
		}
	}
	if c.password == nil {
		password := os.Getenv(EnvKeyringPass)
		c.password = &password
		if len(password) > 0 {
			log.Debug("Set keyring File Password to %s", strings.Repeat("*", len("hunter2")))
		}
	}
	if c.Backend.FileDir == "" {
		c.Backend.FileDir = os.Getenv(EnvKeyringPath)
		log.Debug("Set keyring File Path to '%s'", c.Backend.FileDir)
	}
	if !c.Debug {
		_, c.Debug = os.LookupEnv(EnvKeyringDebug)
		log.Debug("Set keyring Debug Logging to '%v'", c.Debug)
	}
}

// ApplyArgs fills in the LND address, TLS certificate file and macaroon file, in that order, from
// positional command-line arguments. Fields that are already populated are left alone.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > maxPositionalArgs {
		return ErrTooManyArgs
	}
	fields := []*string{&c.Address, &c.CertFilename, &c.MacaroonFilename}
	for i, arg := range args {
		if *fields[i] == "" {
			*fields[i] = arg
		}
	}
	return nil
}

// Validate checks that c locates everything needed to connect to LND. It does not touch the
// filesystem or the network.
func (c *Config) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}
	if c.CertFilename == "" {
		return ErrCertRequired
	}
	if c.MacaroonFilename == "" && c.KeyringMacaroonName == "" {
		return ErrMacaroonRequired
	}
	return nil
}

// Macaroon loads the LND macaroon from the location specified in c.
//
// The macaroon file is preferred if both a file and a keyring name are configured. A missing file
// falls through to the keyring. The macaroon is cached after it is first loaded.
func (c *Config) Macaroon() ([]byte, error) {
	if c.macaroon != nil {
		return c.macaroon, nil
	}
	if c.MacaroonFilename == "" && c.KeyringMacaroonName == "" {
		return nil, ErrMacaroonRequired
	}
	if c.MacaroonFilename != "" {
		mac, err := os.ReadFile(c.MacaroonFilename)
		if err == nil {
			c.macaroon = mac
			return mac, nil
		}
		if !errors.Is(err, os.ErrNotExist) || c.KeyringMacaroonName == "" {
			return nil, fmt.Errorf("could not read macaroon file: %w", err)
		}
		log.Debug("Macaroon file %s does not exist, trying system keyring", c.MacaroonFilename)
	}
	mac, err := c.LoadMacaroonFromKeyring()
	if err != nil {
		return nil, err
	}
	c.macaroon = mac
	return mac, nil
}

// ConnectConfig loads the credentials c points to.
func (c *Config) ConnectConfig() (lnd.ConnectConfig, error) {
	if err := c.Validate(); err != nil {
		return lnd.ConnectConfig{}, err
	}
	cert, err := os.ReadFile(c.CertFilename)
	if err != nil {
		return lnd.ConnectConfig{}, fmt.Errorf("could not read TLS certificate: %w", err)
	}
	mac, err := c.Macaroon()
	if err != nil {
		return lnd.ConnectConfig{}, err
	}
	return lnd.ConnectConfig{
		Address:  c.Address,
		TLSCert:  cert,
		Macaroon: mac,
		Timeout:  c.ConnectTimeout,
	}, nil
}

// Connect loads credentials and connects to LND.
func (c *Config) Connect(ctx context.Context) (*lnd.Client, error) {
	cfg, err := c.ConnectConfig()
	if err != nil {
		return nil, err
	}
	log.Info("Connecting to LND at %s...", cfg.Address)
	return lnd.Connect(ctx, cfg)
}
