package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkoester/knowbridge/internal/actions"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [text...]",
		Short: "Store texts as searchable chunks",
		Long:  "Splits, dedupes and stores texts. Reads from files given via --file or from the arguments.",
		Run:   runIngest,
	}

	cmd.Flags().StringP("source", "s", "cli", "Origin of the texts")
	cmd.Flags().StringP("title", "t", "", "Optional title")
	cmd.Flags().StringSlice("tag", nil, "Tag linked to every stored chunk (repeatable)")
	cmd.Flags().StringSlice("file", nil, "Read text from file (repeatable)")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	source, _ := cmd.Flags().GetString("source")
	title, _ := cmd.Flags().GetString("title")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	files, _ := cmd.Flags().GetStringSlice("file")

	texts := append([]string{}, args...)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			exitErr("read file", err)
		}
		texts = append(texts, string(data))
	}
	if len(texts) == 0 {
		exitErr("ingest", fmt.Errorf("no texts given"))
	}

	b, _, closeBridge := openBridge()
	defer closeBridge()

	n, err := b.Ingest(cmd.Context(), actions.IngestParams{
		Source: source,
		Title:  title,
		Texts:  texts,
		Tags:   tags,
	})
	if err != nil {
		exitErr("ingest", err)
	}

	out, _ := json.Marshal(map[string]any{"added": n})
	fmt.Println(string(out))
}
