package curation

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// Scoring constants. Game quality is tuned around these values.
const (
	scoreMissing = -999.0
	scoreGeneric = -50.0

	specificityCap    = 12
	specificityWeight = 2.0
	visitCap          = 20
	visitWeight       = 0.2

	keepVarietyWeight  = 2.0
	otherVarietyWeight = 6.0
	frequencyCap       = 500
	frequencyPenalty   = 0.02

	varietyFloor   = 0.15
	keepHostCap    = 8
	defaultHostCap = 3
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]{3,}`)

// keepHosts are large, varied sites that get a softer per-host cap.
var keepHosts = map[string]bool{
	"google.com":       true,
	"www.google.com":   true,
	"youtube.com":      true,
	"www.youtube.com":  true,
	"github.com":       true,
	"www.github.com":   true,
	"reddit.com":       true,
	"www.reddit.com":   true,
	"wikipedia.org":    true,
	"en.wikipedia.org": true,
}

// IsKeepHost reports whether host is on the allowlist of varied sites.
func IsKeepHost(host string) bool {
	return keepHosts[host]
}

// HostCap returns the selection cap for a host.
func HostCap(host string) int {
	if IsKeepHost(host) {
		return keepHostCap
	}
	return defaultHostCap
}

// BuildHostStats computes per-host counts and title variety in one pass.
func BuildHostStats(items []domain.CandidateItem) map[string]domain.HostStats {
	counts := make(map[string]int)
	titles := make(map[string]map[string]struct{})
	for _, it := range items {
		if it.Host == "" {
			continue
		}
		counts[it.Host]++
		set, ok := titles[it.Host]
		if !ok {
			set = make(map[string]struct{})
			titles[it.Host] = set
		}
		set[strings.ToLower(it.Title)] = struct{}{}
	}

	stats := make(map[string]domain.HostStats, len(counts))
	for host, n := range counts {
		uniq := len(titles[host])
		stats[host] = domain.HostStats{
			Count:      n,
			UniqTitles: uniq,
			Variety:    float64(uniq) / float64(n),
		}
	}
	return stats
}

// Score rates how interesting an item is. Non-positive scores are discarded.
func Score(it domain.CandidateItem, stats map[string]domain.HostStats) float64 {
	if it.Host == "" || it.Title == "" {
		return scoreMissing
	}
	if IsGenericTitle(it.Title) {
		return scoreGeneric
	}

	hs, ok := stats[it.Host]
	if !ok {
		hs = domain.DefaultHostStats
	}

	specificity := min(len(tokenPattern.FindAllString(strings.ToLower(it.Title), -1)), specificityCap)
	visits := it.VisitCount
	if visits < 1 {
		visits = 1
	}

	score := float64(specificity)*specificityWeight + float64(min(visits, visitCap))*visitWeight
	if IsKeepHost(it.Host) {
		score += hs.Variety * keepVarietyWeight
	} else {
		score += hs.Variety*otherVarietyWeight - float64(min(hs.Count, frequencyCap))*frequencyPenalty
	}
	return score
}

// SelectOptions bounds candidate selection.
type SelectOptions struct {
	// MaxHistory truncates the input before any work.
	MaxHistory int

	// MaxCandidates caps the output.
	MaxCandidates int

	// AllowedTags restricts output categories; empty allows all.
	AllowedTags []string
}

// Selection limits used by the pipeline.
var (
	// SingleStageSelect feeds the one-call generative path.
	SingleStageSelect = SelectOptions{MaxHistory: 500, MaxCandidates: 150}

	// ShrinkSelect is the final stage of the upload shrink.
	ShrinkSelect = SelectOptions{MaxHistory: 5000, MaxCandidates: 700}

	// CuratorFallbackSelect replaces a failed or skipped curator call.
	CuratorFallbackSelect = SelectOptions{MaxHistory: 1000}
)

type scoredItem struct {
	score float64
	item  domain.CandidateItem
}

func byScoreDesc(a, b scoredItem) int {
	return cmp.Compare(b.score, a.score)
}

// SelectCandidates picks the most interesting, varied items from history.
// Output has no duplicate (host, lowercased title) and respects per-host caps.
func SelectCandidates(tagger Tagger, history []domain.HistoryEntry, opts SelectOptions) []domain.CandidateItem {
	if opts.MaxHistory > 0 && len(history) > opts.MaxHistory {
		history = history[:opts.MaxHistory]
	}

	items := make([]domain.CandidateItem, 0, len(history))
	for _, h := range history {
		it, ok := normalizeEntry(h, CleanTitle)
		if !ok {
			continue
		}
		it.Tag = tagger.DetectTag(it.Host, it.Title)
		if len(opts.AllowedTags) > 0 && !slices.Contains(opts.AllowedTags, it.Tag) {
			continue
		}
		items = append(items, it)
	}
	return selectFromItems(items, opts.MaxCandidates)
}

func selectFromItems(items []domain.CandidateItem, maxCandidates int) []domain.CandidateItem {
	stats := BuildHostStats(items)

	scored := make([]scoredItem, 0, len(items))
	for _, it := range items {
		s := Score(it, stats)
		if s <= 0 {
			continue
		}
		scored = append(scored, scoredItem{score: s, item: it})
	}
	slices.SortStableFunc(scored, byScoreDesc)

	out := make([]domain.CandidateItem, 0, min(len(scored), max(maxCandidates, 0)))
	seen := make(map[domain.Pair]bool, len(scored))
	perHost := make(map[string]int)
	for _, s := range scored {
		if maxCandidates > 0 && len(out) >= maxCandidates {
			break
		}
		it := s.item
		key := it.Pair().Folded()
		if seen[key] {
			continue
		}
		seen[key] = true

		if perHost[it.Host] >= HostCap(it.Host) {
			continue
		}
		if !IsKeepHost(it.Host) {
			if hs, ok := stats[it.Host]; ok && hs.Variety < varietyFloor {
				continue
			}
		}
		perHost[it.Host]++
		out = append(out, it)
	}
	return out
}

// normalizeEntry canonicalises an entry's host and title. Entries without a
// host or a title are rejected.
func normalizeEntry(h domain.HistoryEntry, clean TitleCleaner) (domain.CandidateItem, bool) {
	host := EntryHost(h)
	if strings.TrimSpace(h.Title) == "" || host == "" {
		return domain.CandidateItem{}, false
	}
	return domain.CandidateItem{
		Host:          host,
		Title:         clean(h.Title),
		VisitCount:    h.Visits(),
		LastVisitTime: h.LastVisitTime,
	}, true
}
