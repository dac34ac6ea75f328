package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/vecdb/vecadmin"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every stored embedding has the expected dimension",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	db := svc.Store.DB()
	lines, err := vecadmin.Run(cmd.Context(), db, vecadmin.OpVerify)
	if err != nil {
		if !errors.Is(err, vecadmin.ErrUnavailable) {
			logger.Warn("vec_admin query failed, verifying directly", "error", err)
		}
		lines, err = vecadmin.Verify(cmd.Context(), db, svc.Embedder.Dimension())
	}
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	if len(lines) > 0 && strings.HasPrefix(lines[0], "invalid:") {
		return fmt.Errorf("%d embeddings have an unexpected size", len(lines))
	}
	return nil
}
