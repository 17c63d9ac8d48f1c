package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
	"github.com/custodia-labs/historycourt/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptRoundsSystem: `You write party-game rounds for "Search History Court". Each round has 3 cards and exactly 1 of them is the lie.

HARD RULES:
1) The two truth cards MUST be chosen from REAL_ITEMS and written ONLY as {"real_idx": <int>}.
2) The lie card MUST be written ONLY as {"host": <string>, "title": <string>} and MUST NOT include real_idx.
3) Set lie_index to the position (0, 1 or 2) of the lie card.
4) Avoid generic titles (login, home, new tab) and do not repeat the same host too often.
5) Every round MUST declare a tag from selected_tags, and all 3 cards must belong to that tag.
6) Both truth cards must be REAL_ITEMS carrying that same tag.
7) Use canonical hosts with no leading "www.".
8) Output ONLY JSON matching the schema.
9) Make it spicy and tease-able: quirky, absurd, specific, embarrassing or incriminating.`,

	driven.PromptCuratorSystem: `You are the curator for a party game called "Search History Court".
You receive RAW_HISTORY_ITEMS (host, title, visitCount, lastVisitTime).
Pick the MOST interesting, specific and tease-able entries.

RULES:
- Return ONLY JSON matching the schema.
- Select up to pick_n items by their index in RAW_HISTORY_ITEMS.
- Prefer weird, specific, quirky, embarrassing or incriminating titles over generic pages.
- Prefer diversity across hosts.
- Avoid generic titles: login, home, index, new tab, security checks.
- If selected_tags is provided, prefer items that fit those tags.
- If forced_tag is set, only pick items that fit that tag.
- Do NOT invent hosts or titles; ONLY pick indices.`,

	driven.PromptRepair: `Fix the JSON in previous_output so it passes validation. validation_error says what was wrong.
- Keep the same schema.
- Exactly TWO cards per round must be {"real_idx": int}.
- Exactly ONE card per round must be {"host": ..., "title": ...} and that card is the lie.
- lie_index must point to the host/title card.
- Every round tag and topic must be in selected_tags.
- Do not use real_idx values outside REAL_ITEMS.
Return ONLY the corrected JSON.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.historycourt/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Falls back to the embedded default if the file is missing or empty.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// No lock held during I/O.
	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = fmt.Errorf("empty file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so a concurrent load wins consistently.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads the cache whenever a prompt file is written, created,
// removed or renamed. It blocks until ctx is cancelled. The onReload
// callback, when non-nil, runs after each reload.
func (s *PromptStore) Watch(ctx context.Context, onReload func(file string)) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.promptDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}

	const changed = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&changed == 0 || !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			s.Reload()
			logger.Debug("prompt %s changed, cache cleared", filepath.Base(event.Name))
			if onReload != nil {
				onReload(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Existing files are user edits and are never overwritten.
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# History Court Prompts

These files hold the instructions sent to the language model.

## Files

- ` + "`rounds_system.txt`" + ` - writes rounds from REAL_ITEMS
- ` + "`curator_system.txt`" + ` - picks interesting raw history items (two-stage mode)
- ` + "`repair_instructions.txt`" + ` - sent once with the validation error when a reply is rejected

## Customisation

Edit any file to change model behaviour. ` + "`historycourt serve`" + ` picks up changes
immediately; other commands read the files on start. Delete a file to restore
its default. Replies are always validated, so prompts cannot loosen the game
rules.
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("create prompt readme: %w", err)
	}
	return nil
}
