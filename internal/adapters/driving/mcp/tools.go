package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// HistoryItem is one browsing-history entry.
type HistoryItem struct {
	Host       string `json:"host,omitempty" jsonschema:"page hostname; derived from url when empty"`
	URL        string `json:"url,omitempty" jsonschema:"page URL"`
	Title      string `json:"title" jsonschema:"page title"`
	VisitCount int    `json:"visitCount,omitempty" jsonschema:"number of visits (default 1)"`
}

// GenerateInput is the input schema for the generate_rounds tool.
type GenerateInput struct {
	History []HistoryItem `json:"history" jsonschema:"browsing history to draw truths from" validate:"required"`
	Rounds  int           `json:"rounds,omitempty" jsonschema:"number of rounds (default 5, max 15)" validate:"gte=0,lte=15"`
	Seed    string        `json:"seed,omitempty" jsonschema:"seed for reproducible rounds"`
	Tags    []string      `json:"tags,omitempty" jsonschema:"category ids to restrict rounds to; empty means all"`
}

// CardOutput is one card of a generated round.
type CardOutput struct {
	Host  string `json:"host"`
	Title string `json:"title"`
	IsLie bool   `json:"is_lie"`
}

// RoundOutput is one generated round.
type RoundOutput struct {
	Tag      string       `json:"tag"`
	Cards    []CardOutput `json:"cards"`
	LieIndex int          `json:"lie_index"`
}

// GenerateOutput is the output schema for the generate_rounds tool.
type GenerateOutput struct {
	Rounds   []RoundOutput `json:"rounds"`
	Strategy string        `json:"strategy"`
}

// ReviewInput is the input schema for the review_history tool.
type ReviewInput struct {
	History []HistoryItem `json:"history" jsonschema:"browsing history to summarise" validate:"required"`
}

// ReviewCategoryOutput is one category of a review.
type ReviewCategoryOutput struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Count    int      `json:"count"`
	TopHosts []string `json:"top_hosts"`
}

// ReviewOutput is the output schema for the review_history tool.
type ReviewOutput struct {
	Total      int                    `json:"total"`
	Categories []ReviewCategoryOutput `json:"categories"`
}

// CreateCaseInput is the input schema for the create_case tool.
type CreateCaseInput struct {
	SessionID string   `json:"session_id" jsonschema:"id of an uploaded history session" validate:"required"`
	Rounds    int      `json:"rounds,omitempty" jsonschema:"number of rounds (default 5, clamped to 3..15)"`
	Tags      []string `json:"tags,omitempty" jsonschema:"category ids to restrict rounds to"`
}

// CreateCaseOutput is the output schema for the create_case tool.
type CreateCaseOutput struct {
	CaseID string `json:"case_id"`
	Rounds int    `json:"rounds"`
}

// RoundInput is the input schema for the show_round tool.
type RoundInput struct {
	CaseID string `json:"case_id" jsonschema:"case id" validate:"required"`
	Round  int    `json:"round" jsonschema:"zero-based round index" validate:"gte=0"`
}

// PublicRoundOutput is the output schema for the show_round tool.
// It never reveals the lie.
type PublicRoundOutput struct {
	Round int      `json:"round"`
	Total int      `json:"total"`
	Tag   string   `json:"tag"`
	Cards []string `json:"cards"`
}

// GuessInput is the input schema for the grade_guess tool.
type GuessInput struct {
	CaseID    string `json:"case_id" jsonschema:"case id" validate:"required"`
	Round     int    `json:"round" jsonschema:"zero-based round index" validate:"gte=0"`
	Selection int    `json:"selection" jsonschema:"index of the card believed to be the lie (0-2)" validate:"gte=0,lte=2"`
}

// GuessOutput is the output schema for the grade_guess tool.
type GuessOutput struct {
	Correct  bool `json:"correct"`
	LieIndex int  `json:"lie_index"`
}

const reviewTopHosts = 5

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_rounds",
		Description: "Generate two-truths-and-a-lie rounds from a browsing history",
	}, s.handleGenerate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "review_history",
		Description: "Summarise a browsing history by category without storing it",
	}, s.handleReview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_case",
		Description: "Generate and store a case from an uploaded history session",
	}, s.handleCreateCase)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "show_round",
		Description: "Show the three cards of a stored round without revealing the lie",
	}, s.handleShowRound)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "grade_guess",
		Description: "Check whether a selected card is the lie",
	}, s.handleGuess)
}

func toEntries(items []HistoryItem) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(items))
	for i, it := range items {
		out[i] = domain.HistoryEntry{
			Host:       it.Host,
			URL:        it.URL,
			Title:      it.Title,
			VisitCount: it.VisitCount,
		}
	}
	return out
}

// handleGenerate handles the generate_rounds tool invocation.
func (s *Server) handleGenerate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, GenerateOutput{}, err
	}
	n := input.Rounds
	if n == 0 {
		n = domain.DefaultCaseRounds
	}

	res, err := s.ports.Generator.Generate(ctx, domain.GenerateRequest{
		History: toEntries(input.History),
		Rounds:  n,
		Seed:    input.Seed,
		Tags:    input.Tags,
		Meta:    map[string]any{"source": "mcp"},
	})
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	output := GenerateOutput{
		Rounds:   make([]RoundOutput, len(res.Rounds)),
		Strategy: res.Strategy,
	}
	for i, r := range res.Rounds {
		cards := make([]CardOutput, len(r.Cards))
		for j, c := range r.Cards {
			cards[j] = CardOutput{Host: c.Host, Title: c.Title, IsLie: c.IsLie}
		}
		output.Rounds[i] = RoundOutput{Tag: r.Tag, Cards: cards, LieIndex: r.LieIndex}
	}
	return nil, output, nil
}

// handleReview handles the review_history tool invocation.
func (s *Server) handleReview(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReviewInput,
) (*mcp.CallToolResult, ReviewOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, ReviewOutput{}, err
	}

	review, err := s.ports.History.Review(ctx, toEntries(input.History))
	if err != nil {
		return nil, ReviewOutput{}, err
	}

	output := ReviewOutput{
		Total:      review.Total,
		Categories: make([]ReviewCategoryOutput, len(review.Tags)),
	}
	for i, cat := range review.Tags {
		hosts := make([]string, 0, reviewTopHosts)
		for _, h := range cat.Hosts {
			if len(hosts) == reviewTopHosts {
				break
			}
			hosts = append(hosts, h.Host)
		}
		output.Categories[i] = ReviewCategoryOutput{
			ID:       cat.ID,
			Label:    cat.Label,
			Count:    cat.Count,
			TopHosts: hosts,
		}
	}
	return nil, output, nil
}

// handleCreateCase handles the create_case tool invocation.
func (s *Server) handleCreateCase(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateCaseInput,
) (*mcp.CallToolResult, CreateCaseOutput, error) {
	if s.ports.Game == nil {
		return nil, CreateCaseOutput{}, ErrGameUnavailable
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, CreateCaseOutput{}, err
	}

	c, err := s.ports.Game.CreateCase(ctx, input.SessionID, input.Rounds, input.Tags)
	if err != nil {
		return nil, CreateCaseOutput{}, err
	}
	return nil, CreateCaseOutput{CaseID: c.ID, Rounds: len(c.Rounds)}, nil
}

// handleShowRound handles the show_round tool invocation.
func (s *Server) handleShowRound(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RoundInput,
) (*mcp.CallToolResult, PublicRoundOutput, error) {
	if s.ports.Game == nil {
		return nil, PublicRoundOutput{}, ErrGameUnavailable
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, PublicRoundOutput{}, err
	}

	pub, err := s.ports.Game.Round(ctx, input.CaseID, input.Round)
	if err != nil {
		return nil, PublicRoundOutput{}, err
	}

	cards := make([]string, len(pub.Cards))
	for i, c := range pub.Cards {
		cards[i] = c.Host + " | " + c.Title
	}
	return nil, PublicRoundOutput{Round: pub.Index, Total: pub.Total, Tag: pub.Tag, Cards: cards}, nil
}

// handleGuess handles the grade_guess tool invocation.
func (s *Server) handleGuess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GuessInput,
) (*mcp.CallToolResult, GuessOutput, error) {
	if s.ports.Game == nil {
		return nil, GuessOutput{}, ErrGameUnavailable
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, GuessOutput{}, err
	}

	res, err := s.ports.Game.Guess(ctx, input.CaseID, input.Round, input.Selection)
	if err != nil {
		return nil, GuessOutput{}, err
	}
	return nil, GuessOutput{Correct: res.Correct, LieIndex: res.LieIndex}, nil
}
