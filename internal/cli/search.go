package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over stored chunks",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 5, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	b, _, closeBridge := openBridge()
	defer closeBridge()

	hits, err := b.Search(cmd.Context(), query, limit)
	if err != nil {
		exitErr("search", err)
	}

	if len(hits) == 0 {
		fmt.Println("[]")
		return
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	fmt.Println(string(out))
}
