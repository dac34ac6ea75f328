package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/viant/vecdb/writer"
)

var (
	importIncludes []string
	importExcludes []string
	importJSONL    string
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Bulk insert files or JSONL records",
	Long: `Bulk insert texts through the batch writer, 100 items per transaction.

Examples:
  vecdb import ./docs --include "**/*.md" --exclude "drafts/**"
  vecdb import --jsonl records.jsonl   # one {"id": ..., "text": ...} per line`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringSliceVar(&importIncludes, "include", []string{"**/*.md", "**/*.txt"}, "include glob patterns")
	importCmd.Flags().StringSliceVar(&importExcludes, "exclude", []string{"**/.git/**", "**/node_modules/**"}, "exclude glob patterns")
	importCmd.Flags().StringVar(&importJSONL, "jsonl", "", "JSONL file with id and text fields")
	rootCmd.AddCommand(importCmd)
}

func loadImportItems(args []string) ([]writer.Item, error) {
	if importJSONL != "" {
		f, err := os.Open(importJSONL)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readJSONL(f)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("either a directory or --jsonl is required")
	}
	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}
	files, err := collectFiles(root, importIncludes, importExcludes)
	if err != nil {
		return nil, err
	}
	return fileItems(root, files)
}

func runImport(cmd *cobra.Command, args []string) error {
	items, err := loadImportItems(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "nothing to import")
		return nil
	}

	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Importing[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	inserted := 0
	for _, batch := range batches(items, writer.MaxBatch) {
		res, err := svc.Writer.InsertBatch(cmd.Context(), batch)
		if err != nil {
			_ = bar.Exit()
			return fmt.Errorf("batch starting at %s failed after %d items: %w", batch[0].ID, inserted, err)
		}
		inserted += res.Inserted
		_ = bar.Add(res.Inserted)
	}
	fmt.Fprintf(out, "imported %d items\n", inserted)
	return nil
}
