package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics and the active search method",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	strategy := svc.Resolver.Resolve(cmd.Context())
	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"stats":           stats,
			"method":          strategy.Method(),
			"extension":       strategy.Extension,
			"function":        strategy.Function,
			"maxFallbackRows": svc.Search.MaxFallbackRows(),
		})
	}
	fmt.Fprintf(out, "Database:     %s\n", cfg.Store.Path)
	fmt.Fprintf(out, "Model:        %s (dimension %d)\n", stats.Model, stats.Dimension)
	fmt.Fprintf(out, "Embeddings:   %d\n", stats.Count)
	fmt.Fprintf(out, "Avg size:     %.0f bytes\n", stats.AvgBytes)
	fmt.Fprintf(out, "Total size:   %d bytes\n", stats.TotalBytes)
	fmt.Fprintf(out, "File size:    %d bytes\n", stats.DatabaseBytes)
	if strategy.Native {
		fmt.Fprintf(out, "Search:       native (%s via %s)\n", strategy.Function, strategy.Extension)
	} else {
		fmt.Fprintf(out, "Search:       fallback (max %d rows)\n", svc.Search.MaxFallbackRows())
	}
	return nil
}
