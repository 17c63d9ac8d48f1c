package rounds

import (
	"slices"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/curation"
)

// ValidateOptions constrains the rounds a document may contain.
type ValidateOptions struct {
	// AllowedTags restricts round tags. Empty means every known tag.
	AllowedTags []string

	// ForcedTag, when set, replaces each round's declared tag and hints
	// explicit cards that carry no tag of their own.
	ForcedTag string
}

// Validator converts generative output into rounds, rejecting anything that
// breaks a game rule. It never repairs a document.
type Validator struct {
	tax *curation.Taxonomy
}

// NewValidator creates a Validator over a taxonomy.
func NewValidator(tax *curation.Taxonomy) *Validator {
	return &Validator{tax: tax}
}

// Validate decodes data and checks every round against the pool. The first
// violation is returned as a *domain.ValidationError.
func (v *Validator) Validate(data []byte, pool *Pool, opts ValidateOptions) ([]domain.Round, error) {
	raws, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	allowed := opts.AllowedTags
	if len(allowed) == 0 {
		allowed = v.tax.IDs()
	}

	out := make([]domain.Round, 0, len(raws))
	for idx, raw := range raws {
		wr, err := decodeRound(raw, idx)
		if err != nil {
			return nil, err
		}
		if opts.ForcedTag != "" {
			wr.tag = opts.ForcedTag
			for i := range wr.cards {
				if !wr.cards[i].hasRef() && wr.cards[i].tagHint == "" {
					wr.cards[i].tagHint = opts.ForcedTag
				}
			}
		}
		r, err := v.validateRound(wr, idx, pool, allowed)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (v *Validator) validateRound(wr wireRound, idx int, pool *Pool, allowed []string) (domain.Round, error) {
	lieIndex := wr.lieIndex
	if !wr.hasLie {
		inferred, err := v.inferLieIndex(wr.cards, idx, pool)
		if err != nil {
			return domain.Round{}, err
		}
		lieIndex = inferred
	}

	roundTag := wr.tag
	cards := make([]domain.Card, 0, len(wr.cards))
	for i, wc := range wr.cards {
		card, err := v.resolveCard(wc, i, idx, lieIndex, pool)
		if err != nil {
			return domain.Round{}, err
		}
		if roundTag == "" {
			roundTag = card.Tag
		}
		cards = append(cards, card)
	}

	for i, c := range cards {
		pair := domain.NewPair(c.Host, c.Title)
		if i == lieIndex {
			if pool.Contains(pair) {
				return domain.Round{}, domain.NewValidationError(idx, "lie_in_pool", "lie matches real item %s %q", c.Host, c.Title)
			}
			continue
		}
		if !pool.Contains(pair) && c.RealIdx == nil {
			return domain.Round{}, domain.NewValidationError(idx, "truth_not_in_pool", "truth not in real pool: %s %q", c.Host, c.Title)
		}
		if expected, ok := pool.TagOf(pair); ok && expected != "" && c.Tag != expected {
			return domain.Round{}, domain.NewValidationError(idx, "truth_tag_mismatch", "truth tag %s vs expected %s", c.Tag, expected)
		}
	}

	switch {
	case roundTag == "":
		return domain.Round{}, domain.NewValidationError(idx, "missing_tag", "round has no tag")
	case !slices.Contains(allowed, roundTag):
		return domain.Round{}, domain.NewValidationError(idx, "tag_not_allowed", "tag %s not in allowed set", roundTag)
	case !v.tax.IsKnown(roundTag):
		return domain.Round{}, domain.NewValidationError(idx, "unknown_tag", "unknown tag %s", roundTag)
	}
	for _, c := range cards {
		if c.Tag != roundTag {
			return domain.Round{}, domain.NewValidationError(idx, "tag_coherence", "card tag %s != round tag %s", c.Tag, roundTag)
		}
	}

	return domain.Round{Topic: roundTag, Tag: roundTag, Cards: cards, LieIndex: lieIndex}, nil
}

func (v *Validator) resolveCard(wc wireCard, i, idx, lieIndex int, pool *Pool) (domain.Card, error) {
	card := domain.Card{IsLie: i == lieIndex}

	if wc.hasRef() {
		ref, ok := parseInt(wc.ref)
		if !ok {
			return card, domain.NewValidationError(idx, "pool_index", "card %d real_idx not int", i)
		}
		item, ok := pool.Lookup(ref)
		if !ok {
			return card, domain.NewValidationError(idx, "pool_index", "card %d real_idx %d invalid", i, ref)
		}
		if card.IsLie {
			return card, domain.NewValidationError(idx, "lie_has_pool_index", "lie card %d must not reference real_idx", i)
		}
		card.Host, card.Title, card.Tag = item.Host, item.Title, item.Tag
		card.RealIdx = &ref
	} else {
		if wc.host == "" || wc.title == "" {
			return card, domain.NewValidationError(idx, "missing_host_title", "card %d missing host/title", i)
		}
		card.Host = curation.CanonicalHost(wc.host)
		card.Title = curation.CleanTitle(wc.title)
		card.Tag = wc.tagHint
	}

	if card.Tag == "" {
		if tag, ok := pool.TagOf(domain.NewPair(card.Host, card.Title)); ok && tag != "" {
			card.Tag = tag
		} else {
			card.Tag = v.tax.DetectTag(card.Host, card.Title)
		}
	}
	return card, nil
}

// inferLieIndex picks the lie when the document does not say which card it
// is. Ambiguity is an error.
func (v *Validator) inferLieIndex(cards []wireCard, idx int, pool *Pool) (int, error) {
	flagged := -1
	flags := 0
	for i, c := range cards {
		if c.lieFlag {
			flagged = i
			flags++
		}
	}
	if flags == 1 {
		return flagged, nil
	}

	missing := -1
	missingCount := 0
	for i, c := range cards {
		if c.refMissing() {
			missing = i
			missingCount++
		}
	}
	if missingCount == 1 && len(cards)-missingCount >= 2 {
		return missing, nil
	}

	outside := -1
	outsideCount := 0
	for i, c := range cards {
		if c.host == "" || c.title == "" {
			continue
		}
		pair := domain.NewPair(curation.CanonicalHost(c.host), curation.CleanTitle(c.title))
		if !pool.Contains(pair) {
			outside = i
			outsideCount++
		}
	}
	if outsideCount == 1 {
		return outside, nil
	}

	return 0, domain.NewValidationError(idx, "lie_index", "could not infer lie_index (missing/ambiguous)")
}
