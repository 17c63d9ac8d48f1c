package rounds

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/curation"
)

// Curator limits.
const (
	// MaxCuratorItems is the raw history window offered to the curator.
	MaxCuratorItems = 1000

	// MinCuratorItems is the smallest window worth sending to the curator.
	MinCuratorItems = 50

	// MinCuratedPool is the smallest curated pool accepted from the curator.
	MinCuratedPool = 20
)

// CuratorItem is one raw history entry as shown to the curator.
type CuratorItem struct {
	Host          string          `json:"host"`
	Title         string          `json:"title"`
	VisitCount    int             `json:"visitCount"`
	LastVisitTime json.RawMessage `json:"lastVisitTime,omitempty"`
}

// CuratorItems normalises the first MaxCuratorItems history entries,
// dropping those without a host or title.
func CuratorItems(history []domain.HistoryEntry) []CuratorItem {
	window := history[:min(len(history), MaxCuratorItems)]
	out := make([]CuratorItem, 0, len(window))
	for _, h := range window {
		host := curation.EntryHost(h)
		if host == "" || h.Title == "" {
			continue
		}
		out = append(out, CuratorItem{
			Host:          host,
			Title:         curation.CleanTitle(h.Title),
			VisitCount:    h.Visits(),
			LastVisitTime: h.LastVisitTime,
		})
	}
	return out
}

type curatorPick struct {
	Idx json.RawMessage `json:"idx"`
}

type curatorDoc struct {
	Picks *[]json.RawMessage `json:"picks"`
}

// NormalizeCuratorPicks resolves picked indices into a renumbered pool.
// Picks that are out of range, generic, outside the allowed tags, or
// duplicates are skipped. Fewer than MinCuratedPool survivors is a failure.
func NormalizeCuratorPicks(tagger curation.Tagger, data []byte, raw []CuratorItem, allowedTags []string, maxPick int) ([]domain.RealItem, error) {
	var doc curatorDoc
	if err := json.Unmarshal(data, &doc); err != nil || doc.Picks == nil {
		return nil, fmt.Errorf("%w: curator output must be an object with picks[]", domain.ErrCurationFailed)
	}

	seen := make(map[domain.Pair]bool)
	out := make([]domain.RealItem, 0, min(len(*doc.Picks), max(maxPick, 0)))
	for _, p := range *doc.Picks {
		var pick curatorPick
		if json.Unmarshal(p, &pick) != nil {
			continue
		}
		idx, ok := parseInt(pick.Idx)
		if !ok || idx < 0 || idx >= len(raw) {
			continue
		}

		it := raw[idx]
		if it.Host == "" || it.Title == "" || curation.IsGenericTitle(it.Title) {
			continue
		}
		tag := tagger.DetectTag(it.Host, it.Title)
		if len(allowedTags) > 0 && !slices.Contains(allowedTags, tag) {
			continue
		}
		pair := domain.NewPair(it.Host, it.Title)
		if seen[pair] {
			continue
		}
		seen[pair] = true

		out = append(out, domain.RealItem{ID: len(out), Host: it.Host, Title: it.Title, Tag: tag})
		if maxPick > 0 && len(out) >= maxPick {
			break
		}
	}

	if len(out) < MinCuratedPool {
		return nil, fmt.Errorf("%w: curator produced too few usable items: %d", domain.ErrCurationFailed, len(out))
	}
	return out, nil
}
