package rounds

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// Schema names sent with structured-output requests.
const (
	RoundsSchemaName  = "historycourt_rounds"
	CuratorSchemaName = "historycourt_curator"

	minCuratorPicks = 50
)

// falseSchema marshals as false and disallows extra properties.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

func ptr[T any](v T) *T {
	return &v
}

// RoundsSchema describes a document of exactly n rounds. Truth cards may only
// reference the pool by index; lie cards may only carry host and title.
func RoundsSchema(n int, allowedTags []string, maxIdx int) *jsonschema.Schema {
	truthRef := &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: falseSchema(),
		Required:             []string{"real_idx"},
		Properties: map[string]*jsonschema.Schema{
			"real_idx": {Type: "integer", Minimum: ptr(0.0), Maximum: ptr(float64(max(0, maxIdx)))},
		},
	}
	explicit := &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: falseSchema(),
		Required:             []string{"host", "title"},
		Properties: map[string]*jsonschema.Schema{
			"host":  {Type: "string", MinLength: ptr(1)},
			"title": {Type: "string", MinLength: ptr(1)},
			"tag":   {Type: "string"},
			"topic": {Type: "string"},
		},
	}

	enum := make([]any, len(allowedTags))
	for i, t := range allowedTags {
		enum[i] = t
	}

	round := &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: falseSchema(),
		Required:             []string{"cards", "lie_index", "topic", "tag"},
		Properties: map[string]*jsonschema.Schema{
			"topic": {Type: "string"},
			"tag":   {Type: "string", Enum: enum},
			"cards": {
				Type:     "array",
				MinItems: ptr(domain.CardsPerRound),
				MaxItems: ptr(domain.CardsPerRound),
				Items:    &jsonschema.Schema{OneOf: []*jsonschema.Schema{truthRef, explicit}},
			},
			"lie_index": {Type: "integer", Minimum: ptr(0.0), Maximum: ptr(float64(domain.CardsPerRound - 1))},
		},
	}

	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: falseSchema(),
		Required:             []string{"rounds"},
		Properties: map[string]*jsonschema.Schema{
			"rounds": {Type: "array", MinItems: ptr(n), MaxItems: ptr(n), Items: round},
		},
	}
}

// CuratorSchema describes a list of picked raw-item indices.
func CuratorSchema(maxPick int) *jsonschema.Schema {
	pick := &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: falseSchema(),
		Required:             []string{"idx"},
		Properties: map[string]*jsonschema.Schema{
			"idx":    {Type: "integer", Minimum: ptr(0.0)},
			"reason": {Type: "string"},
		},
	}
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: falseSchema(),
		Required:             []string{"picks"},
		Properties: map[string]*jsonschema.Schema{
			"picks": {
				Type:     "array",
				MinItems: ptr(min(minCuratorPicks, maxPick)),
				MaxItems: ptr(maxPick),
				Items:    pick,
			},
		},
	}
}

// MarshalSchema renders a schema for a ResponseFormat.
func MarshalSchema(s *jsonschema.Schema) (json.RawMessage, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return b, nil
}
