package rounds

import (
	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/curation"
)

// Pool is the set of real items a generation call may reference.
type Pool struct {
	items     []domain.RealItem
	byID      map[int]domain.RealItem
	tagByPair map[domain.Pair]string
}

// NewPool indexes items by id and by (host, title).
func NewPool(items []domain.RealItem) *Pool {
	p := &Pool{
		items:     items,
		byID:      make(map[int]domain.RealItem, len(items)),
		tagByPair: make(map[domain.Pair]string, len(items)),
	}
	for _, it := range items {
		p.byID[it.ID] = it
		p.tagByPair[it.Pair()] = it.Tag
	}
	return p
}

// Len returns the number of items.
func (p *Pool) Len() int {
	return len(p.items)
}

// MaxID returns the largest item id, or 0 for an empty pool.
func (p *Pool) MaxID() int {
	maxID := 0
	for _, it := range p.items {
		maxID = max(maxID, it.ID)
	}
	return maxID
}

// Lookup finds an item by id.
func (p *Pool) Lookup(id int) (domain.RealItem, bool) {
	it, ok := p.byID[id]
	return it, ok
}

// Contains reports whether a pair is a pool member.
func (p *Pool) Contains(pair domain.Pair) bool {
	_, ok := p.tagByPair[pair]
	return ok
}

// TagOf returns the recorded tag of a pool member.
func (p *Pool) TagOf(pair domain.Pair) (string, bool) {
	tag, ok := p.tagByPair[pair]
	return tag, ok
}

// PoolFromCandidates assigns positional ids to selected candidates.
// Items missing a host are skipped; missing tags are detected.
func PoolFromCandidates(tagger curation.Tagger, cands []domain.CandidateItem) []domain.RealItem {
	out := make([]domain.RealItem, 0, len(cands))
	for i, c := range cands {
		host := curation.CanonicalHost(c.Host)
		if host == "" || c.Title == "" {
			continue
		}
		title := curation.CleanTitle(c.Title)
		tag := c.Tag
		if tag == "" {
			tag = tagger.DetectTag(host, title)
		}
		out = append(out, domain.RealItem{ID: i, Host: host, Title: title, Tag: tag})
	}
	return out
}

// HeuristicPool builds a curated pool without the generative service: the
// selector output, deduplicated and renumbered, capped at pickN.
func HeuristicPool(tagger curation.Tagger, history []domain.HistoryEntry, pickN int, allowedTags []string) []domain.RealItem {
	opts := curation.CuratorFallbackSelect
	opts.MaxCandidates = pickN
	opts.AllowedTags = allowedTags
	cands := curation.SelectCandidates(tagger, history, opts)

	out := make([]domain.RealItem, 0, len(cands))
	seen := make(map[domain.Pair]bool, len(cands))
	for _, c := range cands {
		host := curation.CanonicalHost(c.Host)
		title := curation.CleanTitle(c.Title)
		pair := domain.NewPair(host, title)
		if seen[pair] {
			continue
		}
		seen[pair] = true
		tag := c.Tag
		if tag == "" {
			tag = tagger.DetectTag(host, title)
		}
		out = append(out, domain.RealItem{ID: len(out), Host: host, Title: title, Tag: tag})
		if pickN > 0 && len(out) >= pickN {
			break
		}
	}
	return out
}
