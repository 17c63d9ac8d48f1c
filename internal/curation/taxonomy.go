package curation

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// Tagger classifies a (host, title) pair into a category id.
type Tagger interface {
	DetectTag(host, title string) string
}

// Taxonomy holds the category definitions and the host type map.
// It is immutable after construction and safe for concurrent use.
type Taxonomy struct {
	categories []domain.Category
	byID       map[string]domain.Category
	hostTypes  map[string]string
	typeToTag  map[string]string
}

// Verify interface compliance.
var _ Tagger = (*Taxonomy)(nil)

// DefaultCategories returns the built-in categories in declaration order.
// Order is the tie-break for host and keyword rules.
func DefaultCategories() []domain.Category {
	return []domain.Category{
		{
			ID:    domain.TagSocial,
			Label: "Social Media",
			Hosts: []string{
				"facebook.com", "instagram.com", "tiktok.com", "twitter.com", "x.com",
				"snapchat.com", "linkedin.com", "pinterest.com", "discord.com",
			},
			Keywords: []string{"social", "profile", "followers", "feed"},
		},
		{
			ID:       domain.TagSearch,
			Label:    "Search / Research",
			Hosts:    []string{"google.com", "bing.com", "duckduckgo.com", "brave.com", "wolframalpha.com"},
			Keywords: []string{"search", "stackexchange", "how to", "why ", "what is"},
		},
		{
			ID:    domain.TagSchoolWork,
			Label: "School & Work",
			Hosts: []string{
				"docs.google.com", "drive.google.com", "notion.so", "office.com", "sharepoint.com",
				"zoom.us", "slack.com", "asana.com", "trello.com", "figma.com", "coursera.org",
				"udemy.com", "khanacademy.org", "canvas", "classroom.google.com",
			},
			Keywords: []string{"assignment", "lecture", "slides", "syllabus", "project brief", "jira"},
		},
		{
			ID:    domain.TagNews,
			Label: "News & Current Events",
			Hosts: []string{
				"nytimes.com", "theguardian.com", "bbc.com", "cnn.com", "reuters.com",
				"washingtonpost.com", "bloomberg.com", "apnews.com", "aljazeera.com", "foxnews.com",
			},
			Keywords: []string{"news", "election", "breaking", "headline", "politics"},
		},
		{
			ID:    domain.TagEntertainment,
			Label: "Entertainment / Streaming",
			Hosts: []string{
				"youtube.com", "netflix.com", "spotify.com", "twitch.tv", "disneyplus.com",
				"hulu.com", "hbomax.com", "soundcloud.com", "imdb.com", "letterboxd.com",
			},
			Keywords: []string{"trailer", "episode", "playlist", "lyrics", "soundtrack", "movie", "series"},
		},
		{
			ID:    domain.TagShoppingMisc,
			Label: "Shopping & Wildcards",
			Hosts: []string{
				"amazon.com", "ebay.com", "etsy.com", "aliexpress.com", "bestbuy.com",
				"target.com", "walmart.com", "costco.com", "ikea.com", "craigslist.org",
			},
			Keywords: []string{"deal", "coupon", "review", "price", "wishlist", "haul"},
		},
	}
}

// DefaultTypeToTag maps site-type labels from the type map CSV to category ids.
func DefaultTypeToTag() map[string]string {
	return map[string]string{
		"Social_Network":           domain.TagSocial,
		"People_and_Society":       domain.TagSocial,
		"Arts_and_Entertainment":   domain.TagEntertainment,
		"Games":                    domain.TagEntertainment,
		"Sports":                   domain.TagEntertainment,
		"Books_and_Literature":     domain.TagEntertainment,
		"News_and_Media":           domain.TagNews,
		"Law_and_Government":       domain.TagNews,
		"Career_and_Education":     domain.TagSchoolWork,
		"Business_and_Industry":    domain.TagSchoolWork,
		"Reference":                domain.TagSearch,
		"Science":                  domain.TagSearch,
		"Internet_and_Telecom":     domain.TagSearch,
		"Computer_and_Electronics": domain.TagSearch,
		"Finance":                  domain.TagShoppingMisc,
		"Shopping":                 domain.TagShoppingMisc,
		"Autos_and_Vehicles":       domain.TagShoppingMisc,
		"Beauty_and_Fitness":       domain.TagShoppingMisc,
		"Food_and_Drink":           domain.TagShoppingMisc,
		"Home_and_Garden":          domain.TagShoppingMisc,
		"Recreation_and_Hobbies":   domain.TagShoppingMisc,
		"Travel":                   domain.TagShoppingMisc,
		"Pets_and_Animals":         domain.TagShoppingMisc,
		"Gambling":                 domain.TagShoppingMisc,
		"Adult":                    domain.TagShoppingMisc,
		"Health":                   domain.TagShoppingMisc,
		"Not_working":              domain.TagShoppingMisc,
		"type":                     domain.TagShoppingMisc,
	}
}

// NewTaxonomy builds a Taxonomy. hostTypes maps canonical hosts to site
// types and may be nil. The default category must be present.
func NewTaxonomy(categories []domain.Category, hostTypes, typeToTag map[string]string) (*Taxonomy, error) {
	t := &Taxonomy{
		categories: slices.Clone(categories),
		byID:       make(map[string]domain.Category, len(categories)),
		hostTypes:  maps.Clone(hostTypes),
		typeToTag:  maps.Clone(typeToTag),
	}
	if t.hostTypes == nil {
		t.hostTypes = map[string]string{}
	}
	if t.typeToTag == nil {
		t.typeToTag = map[string]string{}
	}
	for _, c := range categories {
		if _, dup := t.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q: %w", c.ID, domain.ErrInvalidInput)
		}
		t.byID[c.ID] = c
	}
	if _, ok := t.byID[domain.DefaultTag]; !ok {
		return nil, fmt.Errorf("category %q is required: %w", domain.DefaultTag, domain.ErrInvalidInput)
	}
	for typ, tag := range t.typeToTag {
		if _, ok := t.byID[tag]; !ok {
			return nil, fmt.Errorf("type %q maps to %q: %w", typ, tag, domain.ErrUnknownTag)
		}
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in taxonomy with the given host type map.
func DefaultTaxonomy(hostTypes map[string]string) *Taxonomy {
	t, err := NewTaxonomy(DefaultCategories(), hostTypes, DefaultTypeToTag())
	if err != nil {
		panic(err)
	}
	return t
}

// ReorderCategories returns categories sorted to follow order. Ids missing
// from order keep their relative position after the listed ones.
func ReorderCategories(categories []domain.Category, order []string) ([]domain.Category, error) {
	byID := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	out := make([]domain.Category, 0, len(categories))
	placed := make(map[string]bool, len(order))
	for _, id := range order {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("order lists %q: %w", id, domain.ErrUnknownTag)
		}
		if placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, c)
	}
	for _, c := range categories {
		if !placed[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// DetectTag returns the category for a (host, title) pair. It always
// returns a known category id.
func (t *Taxonomy) DetectTag(host, title string) string {
	h := CanonicalHost(host)
	lowered := strings.ToLower(title)

	if typ, ok := t.LookupHostType(h); ok {
		if tag, ok := t.typeToTag[typ]; ok {
			return tag
		}
	}

	for _, c := range t.categories {
		for _, p := range c.Hosts {
			if strings.Contains(h, p) {
				return c.ID
			}
		}
		for _, kw := range c.Keywords {
			if strings.Contains(lowered, kw) {
				return c.ID
			}
		}
	}
	return domain.DefaultTag
}

// LookupHostType finds the site type for a host, trying the registrable
// root when the host has three or more labels.
func (t *Taxonomy) LookupHostType(host string) (string, bool) {
	h := CanonicalHost(host)
	if h == "" {
		return "", false
	}
	if typ, ok := t.hostTypes[h]; ok {
		return typ, true
	}
	parts := strings.Split(h, ".")
	if len(parts) >= 3 {
		root := strings.Join(parts[len(parts)-2:], ".")
		if typ, ok := t.hostTypes[root]; ok {
			return typ, true
		}
	}
	return "", false
}

// Categories returns the categories in declaration order.
func (t *Taxonomy) Categories() []domain.Category {
	return slices.Clone(t.categories)
}

// IDs returns all category ids in declaration order.
func (t *Taxonomy) IDs() []string {
	ids := make([]string, 0, len(t.categories))
	for _, c := range t.categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// IsKnown reports whether id is a category of this taxonomy.
func (t *Taxonomy) IsKnown(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// ResolveTags validates requested tags and returns them in request order
// without duplicates. An empty request selects every category.
func (t *Taxonomy) ResolveTags(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return t.IDs(), nil
	}
	out := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, id := range requested {
		if !t.IsKnown(id) {
			return nil, fmt.Errorf("tag %q: %w", id, domain.ErrUnknownTag)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// TypeMap returns a copy of the host type classification.
func (t *Taxonomy) TypeMap() domain.TypeMap {
	return domain.TypeMap{
		Hosts:     maps.Clone(t.hostTypes),
		TypeToTag: maps.Clone(t.typeToTag),
	}
}
