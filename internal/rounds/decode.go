package rounds

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// Generative responses arrive in several shapes. Decoding classifies each
// level first and produces one wire representation for the validator.
//
// Document: {"rounds": [...]} or a bare array of rounds.
// Round:    an object with cards, or a bare array of three cards.
// Card:     a pool reference ("real_idx" or "idx"), or an explicit host/title,
//           optionally carrying a lie flag ("lie" or "is_lie") and a tag hint.

type wireRound struct {
	tag      string
	cards    []wireCard
	lieIndex int
	hasLie   bool
}

type wireCard struct {
	// ref is the raw pool reference; nil when the key is absent.
	ref     json.RawMessage
	host    string
	title   string
	tagHint string
	lieFlag bool
}

// hasRef reports whether the card carries a non-null pool reference.
func (c wireCard) hasRef() bool {
	return c.ref != nil && !isNull(c.ref)
}

// refMissing reports whether the reference is absent or blank, which is how
// lie inference distinguishes explicit cards.
func (c wireCard) refMissing() bool {
	if !c.hasRef() {
		return true
	}
	t := string(bytes.TrimSpace(c.ref))
	return t == `""` || t == `[]`
}

// ExtractJSON trims prose and markdown fences around a JSON document.
func ExtractJSON(text string) []byte {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```json")
		t = strings.TrimPrefix(t, "```")
		t = strings.TrimSuffix(strings.TrimSpace(t), "```")
		t = strings.TrimSpace(t)
	}
	if t == "" {
		return nil
	}
	if t[0] == '{' || t[0] == '[' {
		return []byte(t)
	}
	start := strings.IndexAny(t, "{[")
	if start < 0 {
		return []byte(t)
	}
	end := strings.LastIndexAny(t, "}]")
	if end < start {
		return []byte(t[start:])
	}
	return []byte(t[start : end+1])
}

func decodeDocument(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, domain.NewValidationError(domain.ShapeRound, "shape", "empty response")
	}

	var rounds []json.RawMessage
	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, domain.NewValidationError(domain.ShapeRound, "shape", "invalid JSON: %v", err)
		}
		raw, ok := obj["rounds"]
		if !ok || json.Unmarshal(raw, &rounds) != nil {
			return nil, domain.NewValidationError(domain.ShapeRound, "shape", "output must be an object with rounds[] or a list of rounds")
		}
	case '[':
		if err := json.Unmarshal(trimmed, &rounds); err != nil {
			return nil, domain.NewValidationError(domain.ShapeRound, "shape", "invalid JSON: %v", err)
		}
	default:
		return nil, domain.NewValidationError(domain.ShapeRound, "shape", "output must be an object with rounds[] or a list of rounds")
	}
	return rounds, nil
}

func decodeRound(raw json.RawMessage, idx int) (wireRound, error) {
	trimmed := bytes.TrimSpace(raw)
	var r wireRound
	var cardsRaw json.RawMessage

	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return r, domain.NewValidationError(idx, "shape", "invalid round: %v", err)
		}
		r.tag = firstString(obj, "tag", "topic")
		cardsRaw = obj["cards"]
		if li, ok := parseInt(obj["lie_index"]); ok && li >= 0 && li < domain.CardsPerRound {
			r.lieIndex, r.hasLie = li, true
		}
	case len(trimmed) > 0 && trimmed[0] == '[':
		cardsRaw = trimmed
	default:
		return r, domain.NewValidationError(idx, "shape", "round must be an object or a list of cards")
	}

	var cards []json.RawMessage
	if cardsRaw == nil || json.Unmarshal(cardsRaw, &cards) != nil || len(cards) != domain.CardsPerRound {
		return r, domain.NewValidationError(idx, "cards", "cards must be a list of length %d", domain.CardsPerRound)
	}

	r.cards = make([]wireCard, 0, len(cards))
	for i, c := range cards {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(c, &obj); err != nil || obj == nil {
			return r, domain.NewValidationError(idx, "cards", "card %d must be an object", i)
		}
		wc := wireCard{
			host:    stringField(obj["host"]),
			title:   stringField(obj["title"]),
			tagHint: firstString(obj, "tag", "topic"),
		}
		if ref, ok := obj["real_idx"]; ok {
			wc.ref = ref
		} else if ref, ok := obj["idx"]; ok {
			wc.ref = ref
		}
		if flag, ok := obj["lie"]; ok {
			wc.lieFlag = truthy(flag)
		} else if flag, ok := obj["is_lie"]; ok {
			wc.lieFlag = truthy(flag)
		}
		r.cards = append(r.cards, wc)
	}
	return r, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func stringField(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func firstString(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(stringField(obj[k])); s != "" {
			return s
		}
	}
	return ""
}

// parseInt accepts integral JSON numbers and numeric strings.
func parseInt(raw json.RawMessage) (int, bool) {
	if raw == nil || isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// truthy follows JSON truthiness: false, 0, "", [], {} and null are false.
func truthy(raw json.RawMessage) bool {
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return false
	}
}
