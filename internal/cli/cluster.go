package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Group all stored chunks into k clusters",
		Run:   runCluster,
	}

	cmd.Flags().IntP("k", "k", 4, "Number of clusters")
	cmd.Flags().Int("iters", 10, "Iterations")
	cmd.Flags().Int64("seed", 42, "Random seed")

	RootCmd.AddCommand(cmd)
}

func runCluster(cmd *cobra.Command, args []string) {
	k, _ := cmd.Flags().GetInt("k")
	iters, _ := cmd.Flags().GetInt("iters")
	seed, _ := cmd.Flags().GetInt64("seed")

	b, _, closeBridge := openBridge()
	defer closeBridge()

	assign, err := b.Cluster(cmd.Context(), k, iters, seed)
	if err != nil {
		exitErr("cluster", err)
	}

	// JSON object keys must be strings.
	out := make(map[string]int, len(assign))
	for id, c := range assign {
		out[strconv.FormatInt(id, 10)] = c
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
