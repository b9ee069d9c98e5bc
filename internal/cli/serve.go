package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tkoester/knowbridge/internal/mcpserver"
)

// Version is the binary version, set at build time.
var Version = "dev"

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge over MCP on stdio",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	b, settings, closeBridge := openBridge()
	defer closeBridge()

	log.Info("serving MCP on stdio", "db", settings.DBPath, "locked", settings.BridgeKey != "")

	srv := mcpserver.New(b, Version, settings.BridgeKey)
	if err := srv.Serve(); err != nil {
		exitErr("serve", err)
	}
}
