package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Library caches synthesized pronunciations as MP3 files in dir.
type Library struct {
	synth Synthesizer
	dir   string
	sf    singleflight.Group
}

func NewLibrary(synth Synthesizer, dir string) *Library {
	return &Library{synth: synth, dir: dir}
}

// Speech returns the MP3 for text, synthesizing it on a cache miss.
func (l *Library) Speech(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty text")
	}
	path := l.Path(text)
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	result, err, _ := l.sf.Do(path, func() (interface{}, error) {
		data, err := l.synth.Synthesize(ctx, text)
		if err != nil {
			return nil, err
		}
		if err := l.store(path, data); err != nil {
			log.Printf("cache pronunciation %q: %v", text, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Path is the cache file for text.
func (l *Library) Path(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return filepath.Join(l.dir, "word_"+hex.EncodeToString(sum[:8])+".mp3")
}

// Pregenerate fills the cache for texts with up to workers concurrent requests.
// It returns how many files were newly written.
func (l *Library) Pregenerate(ctx context.Context, texts []string, workers int) (int, error) {
	if workers <= 0 {
		workers = 4
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	created := make(chan struct{}, len(texts))
	seen := make(map[string]struct{}, len(texts))
	for _, text := range texts {
		path := l.Path(text)
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		if _, err := os.Stat(path); err == nil {
			continue
		}
		text := text
		g.Go(func() error {
			data, err := l.synth.Synthesize(ctx, text)
			if err != nil {
				return fmt.Errorf("synthesize %q: %w", text, err)
			}
			if err := l.store(path, data); err != nil {
				return err
			}
			created <- struct{}{}
			return nil
		})
	}
	err := g.Wait()
	close(created)
	return len(created), err
}

func (l *Library) store(path string, data []byte) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(l.dir, ".tmp-*.mp3")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
