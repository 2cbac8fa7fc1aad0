package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"docqa/internal/app"

	"github.com/spf13/cobra"
)

var (
	askJSON    bool
	searchOnly bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Build the index and answer one question",
	Long: `Builds the vector index, answers a single question and exits.
With --search only the retrieved chunks and their similarity are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	askCmd.Flags().BoolVar(&searchOnly, "search", false, "only show retrieved chunks, do not call the LLM")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	query := args[0]

	a := app.New(&cfg, prompts, app.WithLogger(log))
	if err := a.Init(ctx); err != nil {
		return err
	}

	if searchOnly {
		results, err := a.Search(ctx, query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if askJSON {
			return printJSON(cmd, results)
		}
		printGrouped(cmd, app.GroupBySource(results))
		return nil
	}

	resp, err := a.Ask(ctx, query)
	if err != nil {
		return err
	}
	if askJSON {
		return printJSON(cmd, resp)
	}

	cmd.Println(resp.Answer)
	cmd.Println()
	cmd.Println("Sources:")
	for i, ch := range resp.SourceDocuments {
		cmd.Printf("  [%d] %s p.%d\n", i+1, ch.Metadata.Source, ch.Metadata.Page)
	}
	return nil
}

func printGrouped(cmd *cobra.Command, grouped map[string][]app.SearchResult) {
	if len(grouped) == 0 {
		cmd.Println("No results found.")
		return
	}
	sources := make([]string, 0, len(grouped))
	for s := range grouped {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	for _, s := range sources {
		cmd.Printf("📄 %s\n", s)
		for _, r := range grouped[s] {
			cmd.Printf("   p.%d (similarity: %.2f) %s\n", r.Page, r.Similarity, snippet(r.Content, 80))
		}
	}
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
