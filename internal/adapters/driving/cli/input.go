package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// readHistory loads a history export from path, or stdin when path is "-".
// The file holds either a bare array of entries or {"history": [...]}.
func readHistory(cmd *cobra.Command, path string) ([]domain.HistoryEntry, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return parseHistory(data)
}

func parseHistory(data []byte) ([]domain.HistoryEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: history file is empty", domain.ErrInvalidInput)
	}

	var history []domain.HistoryEntry
	if data[0] == '[' {
		if err := json.Unmarshal(data, &history); err != nil {
			return nil, fmt.Errorf("%w: parse history: %v", domain.ErrInvalidInput, err)
		}
		return history, nil
	}

	var wrapped struct {
		History []domain.HistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: parse history: %v", domain.ErrInvalidInput, err)
	}
	if wrapped.History == nil {
		return nil, fmt.Errorf("%w: no \"history\" array", domain.ErrInvalidInput)
	}
	return wrapped.History, nil
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errNotConfigured = errors.New("service not configured")

func requireService(name string, svc any) error {
	if svc == nil {
		return fmt.Errorf("%s %w", name, errNotConfigured)
	}
	return nil
}
