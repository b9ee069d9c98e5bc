package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "similar [id]",
		Short: "Nearest neighbors of a stored chunk",
		Args:  cobra.ExactArgs(1),
		Run:   runSimilar,
	}

	cmd.Flags().IntP("limit", "l", 5, "Number of neighbors")
	cmd.Flags().Float64("threshold", 0, "Minimum similarity score (0 disables)")

	RootCmd.AddCommand(cmd)
}

func runSimilar(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("parse id", err)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	thresholdFlag, _ := cmd.Flags().GetFloat64("threshold")

	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		threshold = &thresholdFlag
	}

	b, _, closeBridge := openBridge()
	defer closeBridge()

	neighbors, err := b.Similar(cmd.Context(), id, limit, threshold)
	if err != nil {
		exitErr("similar", err)
	}

	if len(neighbors) == 0 {
		fmt.Println("[]")
		return
	}
	out, _ := json.MarshalIndent(neighbors, "", "  ")
	fmt.Println(string(out))
}
