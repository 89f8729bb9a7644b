package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"wordsprint/internal/config"
	"wordsprint/internal/domain"
	"wordsprint/internal/infra/csvfile"
)

// NewExportCmd writes the full ranking as CSV.
func NewExportCmd(configPath *string) *cobra.Command {
	var out, mode string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the leaderboard as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), *configPath, out, mode, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&mode, "mode", "", "only export records of this mode")
	return cmd
}

func runExport(ctx context.Context, configPath, out, rawMode string, stdout io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	mode, err := domain.ParseMode(rawMode, domain.ModeAny)
	if err != nil {
		return err
	}

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	board, err := b.leaderboard()
	if err != nil {
		return err
	}
	records, err := board.All(ctx, mode)
	if err != nil {
		return err
	}

	if out == "" {
		if err := csvfile.WriteRanking(stdout, records); err != nil {
			return fmt.Errorf("write ranking: %w", err)
		}
		return nil
	}
	if err := writeRankingFile(out, records); err != nil {
		return fmt.Errorf("write ranking: %w", err)
	}
	log.Printf("exported %d records to %s", len(records), out)
	return nil
}

// writeRankingFile reports a failed close, since that is where buffered
// writes surface.
func writeRankingFile(path string, records []domain.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return csvfile.WriteRanking(f, records)
}
