package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/viant/vecdb/search"
)

var (
	searchQuery     string
	searchVector    string
	searchTopK      int
	searchThreshold float64
	searchJSON      bool
	searchRender    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the stored texts closest to a query",
	Long: `Search by query text or by a precomputed comma-separated embedding.

Examples:
  vecdb search -q "how do I reset my password" --top-k 3
  vecdb search --vector "0.01,0.02,..." --threshold 0.5 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "query text")
	searchCmd.Flags().StringVar(&searchVector, "vector", "", "comma-separated query embedding")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", search.DefaultTopK, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", search.DefaultThreshold, "maximum cosine distance")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	searchCmd.Flags().BoolVar(&searchRender, "render", false, "render results as terminal markdown")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := search.Query{Text: searchQuery, TopK: &searchTopK, Threshold: &searchThreshold}
	if q.Text == "" && len(args) > 0 {
		q.Text = args[0]
	}
	if searchVector != "" {
		vec, err := parseVector(searchVector)
		if err != nil {
			return err
		}
		q.Vector = vec
	}

	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Search.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case searchJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case searchRender:
		rendered, err := glamour.Render(matchesMarkdown(q.Text, res), "dark")
		if err != nil {
			return fmt.Errorf("failed to render results: %w", err)
		}
		fmt.Fprint(out, rendered)
	default:
		for i, m := range res.Matches {
			fmt.Fprintf(out, "%d. %s (%.4f) %s\n", i+1, m.ID, m.Distance, snippet(m.Content, 80))
		}
		fmt.Fprintf(out, "%d results via %s\n", len(res.Matches), res.Method)
	}
	return nil
}

// parseVector reads a comma-separated list of floats.
func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("vector element %d: %w", i, err)
		}
		vec = append(vec, float32(v))
	}
	return vec, nil
}

func matchesMarkdown(query string, res *search.Result) string {
	var sb strings.Builder
	if query != "" {
		fmt.Fprintf(&sb, "# Results for %q\n\n", query)
	} else {
		sb.WriteString("# Results\n\n")
	}
	if len(res.Matches) == 0 {
		sb.WriteString("_No matches within the distance threshold._\n")
	}
	for i, m := range res.Matches {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, m.ID)
		fmt.Fprintf(&sb, "**distance** `%.4f`\n\n", m.Distance)
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "---\nmethod: `%s`, top-k: %d, threshold: %g\n", res.Method, res.TopK, res.Threshold)
	return sb.String()
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
