package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"wordsprint/internal/domain"
)

// Default header names of the word list; prompt/answer are accepted as well.
const (
	DefaultPromptColumn = "japanese"
	DefaultAnswerColumn = "word"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WordLoader reads the word pool from a delimited file with a header row.
type WordLoader struct {
	path         string
	promptColumn string
	answerColumn string
}

func NewWordLoader(path, promptColumn, answerColumn string) *WordLoader {
	if promptColumn == "" {
		promptColumn = DefaultPromptColumn
	}
	if answerColumn == "" {
		answerColumn = DefaultAnswerColumn
	}
	return &WordLoader{path: path, promptColumn: promptColumn, answerColumn: answerColumn}
}

func (l *WordLoader) LoadWords(_ context.Context) ([]domain.WordEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return ParseWords(f, l.promptColumn, l.answerColumn)
}

// ParseWords decodes CSV with a header naming the prompt and answer columns.
// A leading byte-order mark is ignored, as are rows whose prompt or answer is blank.
func ParseWords(r io.Reader, promptColumn, answerColumn string) ([]domain.WordEntry, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.ErrEmptyPool
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	promptIdx := columnIndex(header, promptColumn, "prompt")
	answerIdx := columnIndex(header, answerColumn, "answer")
	if promptIdx < 0 || answerIdx < 0 {
		return nil, fmt.Errorf("word list header %v lacks %q/%q columns", header, promptColumn, answerColumn)
	}

	var words []domain.WordEntry
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read word list: %w", err)
		}
		if promptIdx >= len(row) || answerIdx >= len(row) {
			continue
		}
		prompt := strings.TrimSpace(row[promptIdx])
		answer := strings.TrimSpace(row[answerIdx])
		if prompt == "" || answer == "" {
			continue
		}
		words = append(words, domain.WordEntry{Prompt: prompt, Answer: answer})
	}
	if len(words) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return words, nil
}

func columnIndex(header []string, names ...string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}
