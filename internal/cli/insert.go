package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/viant/vecdb/writer"
)

var (
	insertID   string
	insertText string
)

var insertCmd = &cobra.Command{
	Use:   "insert [text]",
	Short: "Embed and store a single text",
	Long: `Embed and store a single text. Re-inserting an existing id replaces the
stored row. When --id is omitted a random UUID is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInsert,
}

func init() {
	insertCmd.Flags().StringVar(&insertID, "id", "", "record id (default: random UUID)")
	insertCmd.Flags().StringVarP(&insertText, "text", "t", "", "text to embed")
	rootCmd.AddCommand(insertCmd)
}

func runInsert(cmd *cobra.Command, args []string) error {
	text := insertText
	if text == "" && len(args) > 0 {
		text = args[0]
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	id := insertID
	if id == "" {
		id = uuid.NewString()
	}

	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Writer.Insert(cmd.Context(), writer.Item{ID: id, Text: text})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "inserted %s (dimension %d, changes %d)\n", res.ID, res.Dimension, res.Changes)
	return nil
}
