package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/onionbridge/onionbridge/internal/log"
	"github.com/onionbridge/onionbridge/pkg/cli"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * ADDRESS, CERT_FILE and MACAROON_FILE may be given as flags, positional arguments or
   environment variables, in decreasing order of precedence.
 * Use -macaroon-name to read the macaroon from the system keyring instead of a file.
 * Use -import-macaroon with -macaroon-file and -macaroon-name to copy a macaroon into the keyring,
   and -delete-macaroon with -macaroon-name to remove it.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] [ADDRESS [CERT_FILE [MACAROON_FILE]]]\n", os.Args[0])
	fmt.Println(usage)
	fmt.Println("")
	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
}

// deleteMacaroon removes the macaroon from the system keyring.
func deleteMacaroon(config *cli.Config) int {
	if config.KeyringMacaroonName == "" {
		writeErr("-macaroon-name is required to delete a macaroon")
		return 1
	}
	if err := config.DeleteMacaroon(); err != nil {
		writeErr("Failed to delete macaroon: %s", err)
		return 1
	}
	fmt.Printf("Deleted %q from the system keyring\n", config.KeyringMacaroonName)
	return 0
}

// importMacaroon copies the macaroon file into the system keyring.
func importMacaroon(config *cli.Config) int {
	if config.MacaroonFilename == "" || config.KeyringMacaroonName == "" {
		writeErr("Both -macaroon-file and -macaroon-name are required to import a macaroon")
		return 1
	}
	mac, err := os.ReadFile(config.MacaroonFilename)
	if err != nil {
		writeErr("Failed to read macaroon: %s", err)
		return 1
	}
	if err := config.SaveMacaroonToKeyring(mac); err != nil {
		writeErr("Failed to import macaroon: %s", err)
		return 1
	}
	fmt.Printf("Imported %s into the system keyring as %q\n", config.MacaroonFilename, config.KeyringMacaroonName)
	return 0
}

func main() {
	status := 1
	defer func() {
		log.Sync()
		os.Exit(status)
	}()

	var (
		debug    bool
		doImport bool
		doDelete bool
	)
	config, err := cli.NewConfig()
	if err != nil {
		writeErr("Failed to load configuration: %s", err)
		return
	}
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages")
	flag.BoolVar(&doImport, "import-macaroon", false, "Copy -macaroon-file into the system keyring as -macaroon-name and exit")
	flag.BoolVar(&doDelete, "delete-macaroon", false, "Remove -macaroon-name from the system keyring and exit")
	config.RegisterCommandLineFlags()
	flag.Parse()
	if !debug {
		if debugEnv, ok := os.LookupEnv(cli.EnvVerbose); ok {
			debug = debugEnv != "false" && debugEnv != "0"
		}
	}
	if debug {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelInfo)
	}

	if err := config.ApplyArgs(flag.Args()); err != nil {
		writeErr("%s", err)
		Usage()
		return
	}
	config.ReadFromEnvironment()

	if doImport {
		status = importMacaroon(config)
		return
	}
	if doDelete {
		status = deleteMacaroon(config)
		return
	}

	if err := config.Validate(); err != nil {
		writeErr("Invalid configuration: %s", err)
		Usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := config.Connect(ctx)
	if err != nil {
		writeErr("Failed to connect to LND: %s", err)
		return
	}
	defer client.Close()

	status = run(ctx, client, config.SignerTimeout)
}
