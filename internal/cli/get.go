package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Fetch one chunk by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("parse id", err)
	}

	b, _, closeBridge := openBridge()
	defer closeBridge()

	chunk, err := b.Fetch(cmd.Context(), id)
	if err != nil {
		exitErr("get", err)
	}

	out, _ := json.MarshalIndent(chunk, "", "  ")
	fmt.Println(string(out))
}
