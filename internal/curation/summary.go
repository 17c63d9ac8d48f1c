package curation

import (
	"math"
	"slices"
	"strings"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// Summary limits.
const (
	// TagMinCount is the recommended number of items per category.
	TagMinCount = 30

	summaryMaxHistory = 2000
	summaryMaxPerTag  = 60
	reviewMaxHistory  = 5000
)

// SummarizeTags reports, per category, how many distinct items a history
// holds plus the highest scoring samples.
func SummarizeTags(tax *Taxonomy, history []domain.HistoryEntry) []domain.TagSummary {
	if len(history) > summaryMaxHistory {
		history = history[:summaryMaxHistory]
	}

	seen := make(map[domain.Pair]bool)
	items := make([]domain.CandidateItem, 0, len(history))
	for _, h := range history {
		it, ok := normalizeEntry(h, CleanTitle)
		if !ok || seen[it.Pair()] {
			continue
		}
		seen[it.Pair()] = true
		it.Tag = tax.DetectTag(it.Host, it.Title)
		items = append(items, it)
	}
	if len(items) == 0 {
		return []domain.TagSummary{}
	}

	stats := BuildHostStats(items)
	scored := make([]scoredItem, 0, len(items))
	for _, it := range items {
		scored = append(scored, scoredItem{score: Score(it, stats), item: it})
	}
	slices.SortStableFunc(scored, byScoreDesc)

	buckets := make(map[string][]domain.ScoredItem)
	for _, s := range scored {
		buckets[s.item.Tag] = append(buckets[s.item.Tag], domain.ScoredItem{
			Host:  s.item.Host,
			Title: s.item.Title,
			Score: math.Round(s.score*100) / 100,
		})
	}

	out := make([]domain.TagSummary, 0, len(tax.categories))
	for _, c := range tax.categories {
		bucket := buckets[c.ID]
		if bucket == nil {
			bucket = []domain.ScoredItem{}
		}
		out = append(out, domain.TagSummary{
			TagCount: domain.TagCount{ID: c.ID, Label: c.Label, Count: len(bucket)},
			Needs:    max(0, TagMinCount-len(bucket)),
			Items:    bucket[:min(len(bucket), summaryMaxPerTag)],
		})
	}
	return out
}

// Review tags every usable entry and groups them by category and host, for
// the pre-upload review screen.
func Review(tax *Taxonomy, history []domain.HistoryEntry) domain.Review {
	if len(history) > reviewMaxHistory {
		history = history[:reviewMaxHistory]
	}

	items := make([]domain.CandidateItem, 0, len(history))
	counts := make(map[string]int)
	hosts := make(map[string]map[string]int)
	for _, h := range history {
		it, ok := normalizeEntry(h, CleanTitle)
		if !ok {
			continue
		}
		it.Tag = tax.DetectTag(it.Host, it.Title)
		items = append(items, it)

		counts[it.Tag]++
		hc, ok := hosts[it.Tag]
		if !ok {
			hc = make(map[string]int)
			hosts[it.Tag] = hc
		}
		hc[it.Host]++
	}

	tags := make([]domain.ReviewCategory, 0, len(tax.categories))
	for _, c := range tax.categories {
		hostCounts := make([]domain.HostCount, 0, len(hosts[c.ID]))
		for host, n := range hosts[c.ID] {
			hostCounts = append(hostCounts, domain.HostCount{Host: host, Count: n})
		}
		slices.SortFunc(hostCounts, func(a, b domain.HostCount) int {
			if a.Count != b.Count {
				return b.Count - a.Count
			}
			return strings.Compare(a.Host, b.Host)
		})
		tags = append(tags, domain.ReviewCategory{
			TagCount: domain.TagCount{ID: c.ID, Label: c.Label, Count: counts[c.ID]},
			Hosts:    hostCounts,
		})
	}

	return domain.Review{Items: items, Tags: tags, Total: len(items)}
}
