package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent audit records, newest first",
		Run:   runAudit,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max records")

	RootCmd.AddCommand(cmd)
}

func runAudit(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	b, _, closeBridge := openBridge()
	defer closeBridge()

	audits, err := b.RecentAudits(cmd.Context(), limit)
	if err != nil {
		exitErr("audit", err)
	}

	if len(audits) == 0 {
		fmt.Println("[]")
		return
	}
	out, _ := json.MarshalIndent(audits, "", "  ")
	fmt.Println(string(out))
}
