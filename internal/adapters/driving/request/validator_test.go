package request

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

type sample struct {
	CaseID string   `json:"case_id" validate:"required"`
	Rounds int      `json:"rounds" validate:"gte=0,lte=15"`
	Action string   `json:"action" validate:"omitempty,oneof=delete_round append_round"`
	Tags   []string `json:"tags,omitempty" validate:"max=6"`
	Hidden string   `json:"-" validate:"max=1"`
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		in      sample
		wantErr []string
	}{
		{name: "valid", in: sample{CaseID: "c1", Rounds: 5}},
		{name: "required", in: sample{}, wantErr: []string{"case_id is required"}},
		{name: "range", in: sample{CaseID: "c", Rounds: 16}, wantErr: []string{"rounds must be <= 15"}},
		{name: "oneof", in: sample{CaseID: "c", Action: "nope"}, wantErr: []string{"action must be one of [delete_round append_round]"}},
		{
			name:    "several fields",
			in:      sample{Rounds: -1, Tags: make([]string, 7)},
			wantErr: []string{"case_id is required", "rounds must be >= 0", "tags must be at most 6"},
		},
		{name: "unnamed field uses go name", in: sample{CaseID: "c", Hidden: "toolong"}, wantErr: []string{"Hidden must be at most 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			for _, want := range tt.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestValidator_NonStruct(t *testing.T) {
	err := NewValidator().Struct("not a struct")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
