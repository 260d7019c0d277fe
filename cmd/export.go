package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded sessions as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")
		opts := store.QueryOpts{Limit: limit, WithAnswers: true}
		if cmd.Flags().Changed("variant") {
			opts.Variant = cfg.Variant
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		recs, err := s.ResultRepo().ListSessions(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		var w io.Writer = cmd.OutOrStdout()
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}
		if err := store.ExportJSONL(w, recs); err != nil {
			return err
		}
		log.Info("exported sessions", zap.Int("count", len(recs)), zap.String("out", out))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().IntP("limit", "n", 0, "Only export the newest N sessions (0 = all)")
}
