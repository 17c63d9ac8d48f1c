package curation

import (
	"strings"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

const (
	stage0Ceiling = 200000
	looseHostCap  = 30
)

// Shrink stage names, also used as metric labels.
const (
	StageNormalize  = "normalize"
	StageNoise      = "noise"
	StageDedupe     = "dedupe"
	StageHostCap    = "host_cap"
	StageSelect     = "select"
	StageSelectNone = "select_empty"
)

var (
	noiseHostsExact     = map[string]bool{"localhost": true, "127.0.0.1": true}
	noiseHostSubstrings = []string{"chrome.google.com", "accounts.google.com", "login.", "auth."}
)

// ShrinkResult is the output of ShrinkHistory.
type ShrinkResult struct {
	Items  []domain.CandidateItem
	Stages []domain.StageCount
}

// Last returns the name of the stage that produced Items.
func (r ShrinkResult) Last() string {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1].Stage
}

// IsNoiseHost reports whether a canonical host is excluded from the pool.
func IsNoiseHost(host string) bool {
	if noiseHostsExact[host] {
		return true
	}
	for _, s := range noiseHostSubstrings {
		if strings.Contains(host, s) {
			return true
		}
	}
	return false
}

// ShrinkHistory reduces an upload in stages, cheapest first, and stops as
// soon as the running count is at most stopThreshold. It never returns an
// empty result for a history that survived normalisation.
func ShrinkHistory(tagger Tagger, history []domain.HistoryEntry, stopThreshold int) ShrinkResult {
	if stopThreshold <= 0 {
		stopThreshold = domain.DefaultStopThreshold
	}
	var res ShrinkResult
	done := func(stage string, items []domain.CandidateItem) bool {
		res.Items = items
		res.Stages = append(res.Stages, domain.StageCount{Stage: stage, Count: len(items)})
		return len(items) <= stopThreshold
	}

	if done(StageNormalize, normalizeStage(history)) {
		return res
	}
	if done(StageNoise, noiseStage(res.Items)) {
		return res
	}
	if done(StageDedupe, dedupeStage(res.Items)) {
		return res
	}
	if done(StageHostCap, hostCapStage(res.Items, looseHostCap)) {
		return res
	}

	staged := res.Items
	entries := make([]domain.HistoryEntry, 0, len(staged))
	for _, it := range staged {
		entries = append(entries, it.Entry())
	}
	selected := SelectCandidates(tagger, entries, ShrinkSelect)
	if len(selected) == 0 {
		done(StageSelectNone, staged)
		return res
	}
	done(StageSelect, selected)
	return res
}

func normalizeStage(history []domain.HistoryEntry) []domain.CandidateItem {
	if len(history) > stage0Ceiling {
		history = history[:stage0Ceiling]
	}
	out := make([]domain.CandidateItem, 0, len(history))
	for _, h := range history {
		it, ok := normalizeEntry(h, CleanTitle)
		if !ok {
			continue
		}
		out = append(out, it)
	}
	return out
}

func noiseStage(items []domain.CandidateItem) []domain.CandidateItem {
	out := make([]domain.CandidateItem, 0, len(items))
	for _, it := range items {
		if IsNoiseHost(it.Host) || IsGenericTitle(it.Title) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func dedupeStage(items []domain.CandidateItem) []domain.CandidateItem {
	seen := make(map[domain.Pair]bool, len(items))
	out := make([]domain.CandidateItem, 0, len(items))
	for _, it := range items {
		key := it.Pair().Folded()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

func hostCapStage(items []domain.CandidateItem, limit int) []domain.CandidateItem {
	perHost := make(map[string]int)
	out := make([]domain.CandidateItem, 0, len(items))
	for _, it := range items {
		if perHost[it.Host] >= limit {
			continue
		}
		perHost[it.Host]++
		out = append(out, it)
	}
	return out
}

// FilterByTags keeps entries whose detected category is in tags. An empty
// tag list returns history unchanged.
func FilterByTags(tagger Tagger, history []domain.HistoryEntry, tags []string) []domain.HistoryEntry {
	if len(tags) == 0 {
		return history
	}
	allowed := make(map[string]bool, len(tags))
	for _, t := range tags {
		allowed[t] = true
	}
	out := make([]domain.HistoryEntry, 0, len(history))
	for _, h := range history {
		it, ok := normalizeEntry(h, CleanTitle)
		if !ok || !allowed[tagger.DetectTag(it.Host, it.Title)] {
			continue
		}
		out = append(out, it.Entry())
	}
	return out
}
