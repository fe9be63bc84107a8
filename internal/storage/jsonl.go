package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"coinScope/internal/model"
)

// JsonlStorage writes transfers and tokens to JSONL files.
type JsonlStorage struct {
	transfersPath string
	tokensPath    string
	mu            sync.Mutex
}

func NewJsonlStorage(transfersPath, tokensPath string) *JsonlStorage {
	return &JsonlStorage{transfersPath: transfersPath, tokensPath: tokensPath}
}

// PutDerivedBatch appends transfers and tokens as JSON lines.
func (s *JsonlStorage) PutDerivedBatch(_ context.Context, transfers []model.TokenTransfer, tokens []model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendLines(s.transfersPath, transfers); err != nil {
		return err
	}
	return appendLines(s.tokensPath, tokens)
}

func appendLines[T any](path string, records []T) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
