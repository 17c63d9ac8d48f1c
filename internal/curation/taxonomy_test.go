package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

func TestDetectTag_Rules(t *testing.T) {
	tax := DefaultTaxonomy(nil)

	tests := []struct {
		name  string
		host  string
		title string
		want  string
	}{
		{"social host", "www.instagram.com", "cat pictures", domain.TagSocial},
		{"search host", "google.com", "weather tomorrow", domain.TagSearch},
		{"search keyword", "example.org", "How to tie a tie", domain.TagSearch},
		{"school host", "notion.so", "grocery list", domain.TagSchoolWork},
		{"school keyword", "example.org", "Week 3 lecture notes", domain.TagSchoolWork},
		{"news host", "bbc.com", "weather", domain.TagNews},
		{"entertainment host", "hulu.com", "something", domain.TagEntertainment},
		{"substring host rule", "netflix.com", "something", domain.TagSocial},
		{"entertainment keyword", "example.org", "Dune official trailer", domain.TagEntertainment},
		{"shopping host", "ebay.com", "vintage lamp", domain.TagShoppingMisc},
		{"default", "example.org", "a quiet page", domain.TagShoppingMisc},
		{"empty", "", "", domain.TagShoppingMisc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.DetectTag(tt.host, tt.title))
		})
	}
}

func TestDetectTag_DeclarationOrderBreaksTies(t *testing.T) {
	tax := DefaultTaxonomy(nil)

	// docs.google.com contains google.com, and search is declared first.
	assert.Equal(t, domain.TagSearch, tax.DetectTag("docs.google.com", "Essay draft"))

	// News precedes entertainment, so a news keyword on a neutral host wins.
	assert.Equal(t, domain.TagNews, tax.DetectTag("example.org", "breaking: new movie series"))

	reordered, err := ReorderCategories(DefaultCategories(), []string{domain.TagEntertainment, domain.TagNews})
	require.NoError(t, err)
	tax2, err := NewTaxonomy(reordered, nil, DefaultTypeToTag())
	require.NoError(t, err)
	assert.Equal(t, domain.TagEntertainment, tax2.DetectTag("example.org", "breaking: new movie series"))
}

func TestDetectTag_TypeMapFirst(t *testing.T) {
	tax := DefaultTaxonomy(map[string]string{
		"example.org": "News_and_Media",
		"reddit.com":  "Social_Network",
		"odd.com":     "Unmapped_Type",
	})

	assert.Equal(t, domain.TagNews, tax.DetectTag("example.org", "movie trailer"))
	// Registrable root lookup for hosts with three or more labels.
	assert.Equal(t, domain.TagSocial, tax.DetectTag("old.reddit.com", "r/golang"))
	// Unknown type labels fall through to the rules.
	assert.Equal(t, domain.TagEntertainment, tax.DetectTag("odd.com", "lyrics"))
}

func TestDetectTag_Totality(t *testing.T) {
	tax := DefaultTaxonomy(map[string]string{"weird.io": "Adult"})
	inputs := [][2]string{
		{"", ""}, {"WWW.", "   "}, {"a.b.c.d.e", "???"}, {"weird.io", ""},
		{"localhost:8080", "x"}, {"xn--nxasmq6b.com", "日本語のタイトル"},
	}
	for _, in := range inputs {
		tag := tax.DetectTag(in[0], in[1])
		assert.True(t, tax.IsKnown(tag), "host=%q title=%q tag=%q", in[0], in[1], tag)
	}
}

func TestLookupHostType(t *testing.T) {
	tax := DefaultTaxonomy(map[string]string{"bbc.co.uk": "News_and_Media"})

	typ, ok := tax.LookupHostType("www.news.bbc.co.uk")
	assert.False(t, ok, "root is the last two labels only")
	assert.Empty(t, typ)

	typ, ok = tax.LookupHostType("WWW.bbc.co.uk")
	assert.True(t, ok)
	assert.Equal(t, "News_and_Media", typ)

	_, ok = tax.LookupHostType("")
	assert.False(t, ok)
}

func TestNewTaxonomy_Errors(t *testing.T) {
	cats := DefaultCategories()

	_, err := NewTaxonomy(append(cats, cats[0]), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewTaxonomy(cats[:2], nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewTaxonomy(cats, nil, map[string]string{"Games": "gaming"})
	assert.ErrorIs(t, err, domain.ErrUnknownTag)
}

func TestReorderCategories(t *testing.T) {
	out, err := ReorderCategories(DefaultCategories(), []string{domain.TagShoppingMisc, domain.TagSocial, domain.TagSocial})
	require.NoError(t, err)
	require.Len(t, out, 6)
	assert.Equal(t, domain.TagShoppingMisc, out[0].ID)
	assert.Equal(t, domain.TagSocial, out[1].ID)
	assert.Equal(t, domain.TagSearch, out[2].ID)

	_, err = ReorderCategories(DefaultCategories(), []string{"memes"})
	assert.ErrorIs(t, err, domain.ErrUnknownTag)
}

func TestTaxonomy_ResolveTags(t *testing.T) {
	tax := DefaultTaxonomy(nil)

	all, err := tax.ResolveTags(nil)
	require.NoError(t, err)
	assert.Equal(t, tax.IDs(), all)

	got, err := tax.ResolveTags([]string{domain.TagNews, domain.TagSocial, domain.TagNews})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.TagNews, domain.TagSocial}, got)

	_, err = tax.ResolveTags([]string{"memes"})
	assert.ErrorIs(t, err, domain.ErrUnknownTag)
}

func TestTaxonomy_Accessors(t *testing.T) {
	tax := DefaultTaxonomy(map[string]string{"a.com": "Games"})
	assert.Len(t, tax.Categories(), 6)
	assert.Equal(t, []string{"social", "search", "school_work", "news", "entertainment", "shopping_misc"}, tax.IDs())

	tm := tax.TypeMap()
	assert.Equal(t, "Games", tm.Hosts["a.com"])
	assert.Equal(t, domain.TagEntertainment, tm.TypeToTag["Games"])

	// Copies do not leak into the taxonomy.
	tm.Hosts["b.com"] = "News_and_Media"
	_, ok := tax.LookupHostType("b.com")
	assert.False(t, ok)
}
