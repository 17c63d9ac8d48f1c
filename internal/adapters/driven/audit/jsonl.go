// Package audit writes generation audit records as JSON lines.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
	"github.com/custodia-labs/historycourt/internal/logger"
)

// DefaultFileName is the audit log created in the config directory.
const DefaultFileName = "ai_rounds_log.jsonl"

// Ensure JSONLog implements the interface.
var _ driven.AuditLog = (*JSONLog)(nil)

// JSONLog appends one JSON object per line to a file.
// Write failures are logged and otherwise ignored.
type JSONLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewJSONLog opens path for appending, creating parent directories.
func NewJSONLog(path string) (*JSONLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &JSONLog{path: path, file: f}, nil
}

// Path returns the log file path.
func (l *JSONLog) Path() string {
	return l.path
}

// Record appends rec as one line.
func (l *JSONLog) Record(_ context.Context, rec domain.AuditRecord) {
	if rec.Meta == nil {
		rec.Meta = map[string]any{}
	}
	if rec.Request == nil {
		rec.Request = map[string]any{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		logger.Warn("audit: encode record: %v", err)
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	if _, err := l.file.Write(data); err != nil {
		logger.Warn("audit: write %s: %v", l.path, err)
	}
}

// Close closes the file. Later records are dropped.
func (l *JSONLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
