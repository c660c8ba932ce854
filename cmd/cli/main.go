package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/de-tools/alm-console/pkg/runtime/terminal"
	"github.com/rs/zerolog"
)

func main() {
	usr, _ := user.Current()
	profilesPath := ".almcfg"
	if usr != nil {
		profilesPath = filepath.Join(usr.HomeDir, ".almcfg")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	cli := terminal.NewCLI(terminal.Options{
		ProfilesPath: profilesPath,
		Output:       os.Stdout,
		Logger:       &logger,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
