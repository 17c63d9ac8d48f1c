package rounds

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/curation"
)

// Filler used when history is too sparse to fill every round.
const (
	FillerHost  = "example.com"
	FillerTitle = "User has no history"

	minFillerItems = 30
	lieTemplate    = "How to erase %s logs"
)

type fakeLie struct {
	title string
	host  string
}

// cannedLies are implausible entries nobody would admit to visiting.
var cannedLies = []fakeLie{
	{"how to get away with murder", "wikihow.com"},
	{"is it illegal to keep a squirrel", "reddit.com"},
	{"download more ram free", "softonic.com"},
	{"why do my feet smell like cheese", "webmd.com"},
	{"nickelback fan club", "geocities.com"},
	{"flat earth society membership", "flatearth.org"},
	{"how to bribe a judge", "legalzoom.com"},
	{"am I a robot test", "captcha.net"},
	{"DIY surgery kits", "amazon.com"},
	{"hot singles in your area", "dating.com"},
	{"how to delete browser history permanently", "google.com"},
	{"pretend to work screen", "github.com"},
}

// Synthesizer builds rounds locally without any external service. It
// never fails for well-formed input.
type Synthesizer struct {
	tax   *curation.Taxonomy
	clean curation.TitleCleaner
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithLegacyTitles switches truth and lie titles to the legacy cleaner.
func WithLegacyTitles() SynthesizerOption {
	return func(s *Synthesizer) {
		s.clean = curation.CleanTitleLegacy
	}
}

// NewSynthesizer creates a Synthesizer over a taxonomy.
func NewSynthesizer(tax *curation.Taxonomy, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{tax: tax, clean: curation.CleanTitle}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type synthItem struct {
	host  string
	title string
	tag   string
}

// Synthesize returns exactly n rounds built from history. A non-empty seed
// makes the output reproducible.
func (s *Synthesizer) Synthesize(history []domain.HistoryEntry, n int, seed string, allowedTags []string) []domain.Round {
	if n < 1 {
		return []domain.Round{}
	}
	allowed := s.allowed(allowedTags)

	valid := make([]synthItem, 0, len(history))
	for _, h := range history {
		host := curation.EntryHost(h)
		if host == "" || strings.TrimSpace(h.Title) == "" {
			continue
		}
		title := s.clean(h.Title)
		tag := s.tax.DetectTag(host, title)
		if !slices.Contains(allowed, tag) || curation.IsGenericTitle(title) {
			continue
		}
		valid = append(valid, synthItem{host: host, title: title, tag: tag})
	}

	if len(valid) < 2*n {
		valid = filler(allowed[0], n)
	}
	return s.build(NewRand(seed), valid, n)
}

// FromPool returns exactly n rounds whose truths are drawn from a curated
// pool. An empty pool yields filler rounds.
func (s *Synthesizer) FromPool(pool []domain.RealItem, n int, seed string, allowedTags []string) []domain.Round {
	if n < 1 {
		return []domain.Round{}
	}
	allowed := s.allowed(allowedTags)

	valid := make([]synthItem, 0, len(pool))
	for _, it := range pool {
		if !slices.Contains(allowed, it.Tag) {
			continue
		}
		valid = append(valid, synthItem{host: it.Host, title: it.Title, tag: it.Tag})
	}
	if len(valid) == 0 {
		valid = filler(allowed[0], n)
	}
	return s.build(NewRand(seed), valid, n)
}

func (s *Synthesizer) allowed(tags []string) []string {
	if len(tags) == 0 {
		return s.tax.IDs()
	}
	return tags
}

func filler(tag string, n int) []synthItem {
	items := make([]synthItem, max(minFillerItems, 3*n))
	for i := range items {
		items[i] = synthItem{host: FillerHost, title: FillerTitle, tag: tag}
	}
	return items
}

// build assembles rounds from a non-empty item list.
func (s *Synthesizer) build(rng *rand.Rand, valid []synthItem, n int) []domain.Round {
	var order []string
	buckets := make(map[string][]synthItem)
	known := make(map[domain.Pair]bool, len(valid))
	for _, it := range valid {
		if _, ok := buckets[it.tag]; !ok {
			order = append(order, it.tag)
		}
		buckets[it.tag] = append(buckets[it.tag], it)
		known[domain.NewPair(it.host, it.title)] = true
	}
	for _, tag := range order {
		b := buckets[tag]
		rng.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
	}

	keys := make([]string, 0, len(order))
	for _, tag := range order {
		if len(buckets[tag]) >= 2 {
			keys = append(keys, tag)
		}
	}
	if len(keys) == 0 {
		keys = order
	}

	out := make([]domain.Round, 0, n)
	for range n {
		tag := keys[rng.IntN(len(keys))]
		bucket := buckets[tag]
		if len(bucket) < 2 {
			refill := sameTag(valid, tag)
			for len(bucket) < 2 {
				bucket = append(bucket, refill[rng.IntN(len(refill))])
			}
		}

		truth1 := bucket[len(bucket)-1]
		truth2 := bucket[len(bucket)-2]
		bucket = bucket[:len(bucket)-2]
		buckets[tag] = bucket

		lie := s.pickLie(rng, bucket, known)

		cards := []domain.Card{
			{Host: truth1.host, Title: truth1.title, Tag: tag},
			{Host: truth2.host, Title: truth2.title, Tag: tag},
			{Host: lie.host, Title: lie.title, Tag: tag, IsLie: true},
		}
		rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

		lieIndex := slices.IndexFunc(cards, func(c domain.Card) bool { return c.IsLie })
		out = append(out, domain.Round{Topic: tag, Tag: tag, Cards: cards, LieIndex: lieIndex})
	}
	return out
}

// pickLie chooses a canned lie or, half the time, a templated lie on a real
// host. A canned lie that collides with a real item is replaced by the next one.
func (s *Synthesizer) pickLie(rng *rand.Rand, bucket []synthItem, known map[domain.Pair]bool) synthItem {
	i := rng.IntN(len(cannedLies))
	fake := cannedLies[i]
	if rng.Float64() > 0.5 && len(bucket) > 0 {
		host := bucket[rng.IntN(len(bucket))].host
		fake = fakeLie{title: fmt.Sprintf(lieTemplate, host), host: host}
	}

	lie := synthItem{host: curation.CanonicalHost(fake.host), title: s.clean(fake.title)}
	for tries := 0; known[domain.NewPair(lie.host, lie.title)] && tries < len(cannedLies); tries++ {
		i = (i + 1) % len(cannedLies)
		lie = synthItem{host: curation.CanonicalHost(cannedLies[i].host), title: s.clean(cannedLies[i].title)}
	}
	return lie
}

func sameTag(items []synthItem, tag string) []synthItem {
	out := make([]synthItem, 0, len(items))
	for _, it := range items {
		if it.tag == tag {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return items
	}
	return out
}
