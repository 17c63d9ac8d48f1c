package curation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

func entry(host, title string) domain.HistoryEntry {
	return domain.HistoryEntry{Host: host, Title: title, VisitCount: 1}
}

func TestScore(t *testing.T) {
	stats := map[string]domain.HostStats{
		"example.org": {Count: 1, Variety: 1.0},
		"github.com":  {Count: 1, Variety: 1.0},
	}

	tests := []struct {
		name string
		item domain.CandidateItem
		want float64
	}{
		{
			name: "missing host",
			item: domain.CandidateItem{Title: "something specific"},
			want: -999,
		},
		{
			name: "missing title",
			item: domain.CandidateItem{Host: "example.org"},
			want: -999,
		},
		{
			name: "generic title",
			item: domain.CandidateItem{Host: "example.org", Title: "Sign in"},
			want: -50,
		},
		{
			// 4 tokens*2 + 5 visits*0.2 + variety*6 - 1*0.02
			name: "regular host",
			item: domain.CandidateItem{Host: "example.org", Title: "how to fold fitted sheets", VisitCount: 5},
			want: 8 + 1 + 6 - 0.02,
		},
		{
			// 4 tokens*2 + 1 visit*0.2 + variety*2
			name: "keep host",
			item: domain.CandidateItem{Host: "github.com", Title: "octocat hello world repo", VisitCount: 1},
			want: 8 + 0.2 + 2,
		},
		{
			// specificity and visits are capped, unknown host uses defaults
			name: "caps and defaults",
			item: domain.CandidateItem{
				Host:       "unknown.net",
				Title:      "one two three four five six seven eight nine ten eleven twelve thirteen fourteen",
				VisitCount: 400,
			},
			want: 24 + 4 + 6 - 0.02,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.item, stats), 1e-9)
		})
	}
}

func TestScore_FrequencyPenaltyIsCapped(t *testing.T) {
	item := domain.CandidateItem{Host: "busy.com", Title: "quite specific words here", VisitCount: 1}
	at500 := Score(item, map[string]domain.HostStats{"busy.com": {Count: 500, Variety: 1}})
	at5000 := Score(item, map[string]domain.HostStats{"busy.com": {Count: 5000, Variety: 1}})
	assert.InDelta(t, at500, at5000, 1e-9)
}

func TestBuildHostStats(t *testing.T) {
	items := []domain.CandidateItem{
		{Host: "a.com", Title: "One"},
		{Host: "a.com", Title: "one"},
		{Host: "a.com", Title: "two"},
		{Host: "a.com", Title: "three"},
		{Host: "b.com", Title: "x"},
		{Host: "", Title: "ignored"},
	}
	stats := BuildHostStats(items)
	require.Len(t, stats, 2)
	assert.Equal(t, 4, stats["a.com"].Count)
	assert.Equal(t, 3, stats["a.com"].UniqTitles)
	assert.InDelta(t, 0.75, stats["a.com"].Variety, 1e-9)
	assert.Equal(t, domain.HostStats{Count: 1, UniqTitles: 1, Variety: 1}, stats["b.com"])
}

func TestSelectCandidates_DedupeAndCaps(t *testing.T) {
	var history []domain.HistoryEntry
	for i := range 12 {
		history = append(history, entry("example.org", fmt.Sprintf("gopher article number %d about channels", i)))
		history = append(history, entry("github.com", fmt.Sprintf("octocat repository number %d with tests", i)))
	}
	// Duplicates differing only by case and www prefix.
	history = append(history,
		entry("www.example.org", "GOPHER ARTICLE NUMBER 0 ABOUT CHANNELS"),
		entry("example.org", "gopher article number 0 about channels"),
	)

	out := SelectCandidates(DefaultTaxonomy(nil), history, SelectOptions{MaxHistory: 2000, MaxCandidates: 700})

	perHost := map[string]int{}
	seen := map[domain.Pair]bool{}
	for _, it := range out {
		key := it.Pair().Folded()
		assert.False(t, seen[key], "duplicate %v", key)
		seen[key] = true
		perHost[it.Host]++
	}
	assert.Equal(t, 3, perHost["example.org"])
	assert.Equal(t, 8, perHost["github.com"])
}

func TestSelectCandidates_VarietyFloor(t *testing.T) {
	var history []domain.HistoryEntry
	for range 10 {
		history = append(history, entry("spam.com", "exactly the same repeated headline text"))
	}
	history = append(history, entry("varied.com", "a thoughtful essay about gardening tools"))

	out := SelectCandidates(DefaultTaxonomy(nil), history, SelectOptions{MaxCandidates: 10})
	require.Len(t, out, 1)
	assert.Equal(t, "varied.com", out[0].Host)
}

func TestSelectCandidates_DropsGenericAndFiltersTags(t *testing.T) {
	history := []domain.HistoryEntry{
		entry("bbc.com", "Election results in detail tonight"),
		entry("bbc.com", "Sign in"),
		entry("instagram.com", "cute dogs compilation for everyone"),
		{Host: "", Title: "no host entry here"},
		{Host: "nytimes.com"},
	}

	out := SelectCandidates(DefaultTaxonomy(nil), history, SelectOptions{AllowedTags: []string{domain.TagNews}})
	require.Len(t, out, 1)
	assert.Equal(t, "Election results in detail tonight", out[0].Title)
	assert.Equal(t, domain.TagNews, out[0].Tag)
}

func TestSelectCandidates_OrderAndLimits(t *testing.T) {
	history := []domain.HistoryEntry{
		entry("a.com", "short one"),
		entry("b.com", "a much longer and more specific title with many tokens"),
		entry("c.com", "medium length title here"),
	}

	out := SelectCandidates(DefaultTaxonomy(nil), history, SelectOptions{MaxCandidates: 2})
	require.Len(t, out, 2)
	assert.Equal(t, "b.com", out[0].Host)
	assert.Equal(t, "c.com", out[1].Host)

	truncated := SelectCandidates(DefaultTaxonomy(nil), history, SelectOptions{MaxHistory: 1})
	require.Len(t, truncated, 1)
	assert.Equal(t, "a.com", truncated[0].Host)
}

func TestSelectCandidates_Empty(t *testing.T) {
	assert.Empty(t, SelectCandidates(DefaultTaxonomy(nil), nil, SingleStageSelect))
}

func TestHostCap(t *testing.T) {
	assert.Equal(t, 8, HostCap("youtube.com"))
	assert.Equal(t, 8, HostCap("en.wikipedia.org"))
	assert.Equal(t, 3, HostCap("vimeo.com"))
}
