package csvfile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wordsprint/internal/domain"
)

func TestParseWordsHandlesBOMAndBlankRows(t *testing.T) {
	input := "\ufeffjapanese,word\nりんご, apple\n\n,missing\nねこ,cat\n"
	words, err := ParseWords(strings.NewReader(input), "", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %+v", words)
	}
	if words[0] != (domain.WordEntry{Prompt: "りんご", Answer: "apple"}) {
		t.Fatalf("unexpected first word %+v", words[0])
	}
}

func TestParseWordsColumnFallbacks(t *testing.T) {
	input := "id,Answer,Prompt\n1,dog,いぬ\n"
	words, err := ParseWords(strings.NewReader(input), DefaultPromptColumn, DefaultAnswerColumn)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(words) != 1 || words[0].Prompt != "いぬ" || words[0].Answer != "dog" {
		t.Fatalf("unexpected words %+v", words)
	}

	if _, err := ParseWords(strings.NewReader("a,b\n1,2\n"), "", ""); err == nil {
		t.Fatalf("expected header error")
	}
	if _, err := ParseWords(strings.NewReader(""), "", ""); !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected empty pool, got %v", err)
	}
}

func TestWordLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.csv")
	if err := os.WriteFile(path, []byte("kana,english\nみず,water\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := NewWordLoader(path, "kana", "english").LoadWords(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(words) != 1 || words[0].Answer != "water" {
		t.Fatalf("unexpected words %+v", words)
	}

	if _, err := NewWordLoader(filepath.Join(t.TempDir(), "missing.csv"), "", "").LoadWords(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWriteRanking(t *testing.T) {
	at := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := WriteRanking(&buf, []domain.Record{
		{Player: "C", Score: 90, ElapsedSeconds: 50, Mode: domain.ModeFreeText, SubmittedAt: at},
		{Player: "Bob, Jr.", Score: 80, ElapsedSeconds: 25, Mode: domain.ModeMultipleChoice, SubmittedAt: at},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "rank,name,score,time,mode,submitted_at\n" +
		"1,C,90,50,text,2024-11-22T09:00:00Z\n" +
		"2,\"Bob, Jr.\",80,25,choice,2024-11-22T09:00:00Z\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}
