package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"wordsprint/internal/audio"
	"wordsprint/internal/config"
)

// NewAudioCmd pre-generates pronunciation files for the word pool.
func NewAudioCmd(configPath *string) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Pre-generate pronunciation audio for every answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudio(cmd.Context(), *configPath, workers)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent synthesis requests (default from config)")
	return cmd
}

func runAudio(ctx context.Context, configPath string, workers int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = cfg.Audio.Workers
	}

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	words, err := b.wordLoader().LoadWords(ctx)
	if err != nil {
		return err
	}

	tts, err := audio.NewGoogleTTS(ctx, cfg.Audio.Language, cfg.Audio.Voice)
	if err != nil {
		return err
	}
	defer tts.Close()

	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Answer
	}
	created, err := audio.NewLibrary(tts, cfg.Audio.Dir).Pregenerate(ctx, texts, workers)
	log.Printf("generated %d audio files in %s", created, cfg.Audio.Dir)
	return err
}
