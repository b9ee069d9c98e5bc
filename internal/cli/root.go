// Package cli implements the knowbridge CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tkoester/knowbridge/internal/bridge"
	"github.com/tkoester/knowbridge/internal/config"
	"github.com/tkoester/knowbridge/internal/persona"
	"github.com/tkoester/knowbridge/internal/store"
)

var dbFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "knowbridge",
	Short: "Personal knowledge bridge",
	Long:  "Lexical search, summaries and tiered actions over a personal SQLite knowledge base. Single binary, no external services.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Database path (default: config db_path or ~/.knowbridge/knowbridge.db)")
}

func loadSettings() *config.Settings {
	settings, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	if dbFlag != "" {
		settings.DBPath = dbFlag
	}
	return settings
}

// openBridge wires a Bridge from the loaded settings. The returned close
// function releases the store.
func openBridge() (*bridge.Bridge, *config.Settings, func()) {
	settings := loadSettings()

	st, err := store.NewSQLiteStore(settings.DBPath)
	if err != nil {
		exitErr("open store", err)
	}

	p := persona.New(persona.Config{
		Mood:                      settings.Mood,
		WriteRequiresConfirmation: settings.WriteRequiresConfirmation,
		TimelinePath:              settings.TimelinePath,
	})

	b := bridge.New(bridge.Config{
		Store:           st,
		Persona:         p,
		Policy:          settings.Policy,
		Tiers:           settings.Tiers,
		DedupeThreshold: settings.DedupeThreshold,
		Logger:          log.Default(),
	})
	return b, settings, func() { st.Close() }
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
