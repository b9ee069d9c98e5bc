package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "dispatch [command]",
		Short: "Run a bridge command",
		Long:  "Runs a command like journal.summarize or memory.tag through the dispatcher. Arguments are given as a JSON object.",
		Args:  cobra.ExactArgs(1),
		Run:   runDispatch,
	}

	cmd.Flags().StringP("args", "a", "{}", "Command arguments as JSON")
	cmd.Flags().String("tier", "", "Tier selector: under, core, over or all")
	cmd.Flags().Bool("confirm", false, "Confirm a mutating command")

	RootCmd.AddCommand(cmd)
}

func runDispatch(cmd *cobra.Command, args []string) {
	rawArgs, _ := cmd.Flags().GetString("args")
	tier, _ := cmd.Flags().GetString("tier")
	confirm, _ := cmd.Flags().GetBool("confirm")

	var cmdArgs map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &cmdArgs); err != nil {
		exitErr("parse args", err)
	}
	if cmdArgs == nil {
		cmdArgs = map[string]any{}
	}
	if confirm {
		cmdArgs["confirm"] = true
	}

	b, _, closeBridge := openBridge()
	defer closeBridge()

	result, err := b.Dispatch(cmd.Context(), args[0], cmdArgs, tier)
	if err != nil {
		exitErr("dispatch", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
