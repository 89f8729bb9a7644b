package cli

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"
	"wordsprint/internal/config"
	"wordsprint/internal/infra/csvfile"
	"wordsprint/internal/infra/postgres"
)

// NewImportWordsCmd loads a CSV word list into the postgres words table.
func NewImportWordsCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-words",
		Short: "Import a CSV word list into postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportWords(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file (default words.path)")
	return cmd
}

func runImportWords(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}
	if file == "" {
		file = cfg.Words.Path
	}

	words, err := csvfile.NewWordLoader(file, cfg.Words.PromptColumn, cfg.Words.AnswerColumn).LoadWords(ctx)
	if err != nil {
		return err
	}

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	inserted, err := postgres.NewWordLoader(b.pool).ImportWords(ctx, words)
	if err != nil {
		return err
	}
	log.Printf("imported %d of %d words from %s", inserted, len(words), file)
	return b.invalidateWordCache(ctx)
}
