package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
	"github.com/custodia-labs/historycourt/internal/core/ports/driving"
	"github.com/custodia-labs/historycourt/internal/curation"
	"github.com/custodia-labs/historycourt/internal/logger"
	"github.com/custodia-labs/historycourt/internal/rounds"
)

// Ensure GenerationService implements the interface.
var _ driving.RoundGenerator = (*GenerationService)(nil)

// Strategy names, also used as metric and result labels.
const (
	StrategySingle    = "single"
	StrategyTwoStage  = "two_stage"
	StrategyPoolLocal = "pool_local"
	StrategyLocal     = "local"
)

// Outcome labels for generation metrics.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// minGenerativeItems is the floor on pool size for a generative call;
// the effective minimum is max(minGenerativeItems, 2*rounds).
const minGenerativeItems = 10

const (
	closingStructured = "Return ONLY valid JSON."
	closingRounds     = `Return ONLY valid JSON of the form {"rounds": [...]}.`
	closingPicks      = `Return ONLY valid JSON of the form {"picks": [...]}.`
	forcedTagNote     = "If forced_tag is non-empty, every round MUST use that tag for both topic and tag fields."
)

// GenerationConfig tunes the generation pipeline.
type GenerationConfig struct {
	// Mode selects the strategy chain.
	Mode domain.GenerationMode

	// PickN is the curated pool target in two-stage mode.
	PickN int

	// Temperature is used for the rounds call.
	Temperature float64

	// CuratorModel overrides the model for the curator call.
	CuratorModel string

	// LegacyTitles switches the local synthesizer to the legacy title cleaner.
	LegacyTitles bool
}

// GenerationService turns history into rounds. Strategies are tried in a
// fixed order; the last one is the local synthesizer, which cannot fail.
type GenerationService struct {
	tax       *curation.Taxonomy
	llm       driven.LLMService
	prompts   driven.PromptStore
	cfg       GenerationConfig
	validator *rounds.Validator
	synth     *rounds.Synthesizer

	audit   driven.AuditLog
	cache   driven.PoolCache
	metrics driven.Metrics
}

// NewGenerationService creates a generation service.
// The llm parameter is optional (can be nil); without it rounds are always
// synthesised locally.
func NewGenerationService(
	tax *curation.Taxonomy,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg GenerationConfig,
) *GenerationService {
	if cfg.Mode == "" {
		cfg.Mode = domain.GenerationModeSingle
	}
	if cfg.PickN <= 0 {
		cfg.PickN = domain.DefaultPickN
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = domain.DefaultRoundTemperature
	}
	var opts []rounds.SynthesizerOption
	if cfg.LegacyTitles {
		opts = append(opts, rounds.WithLegacyTitles())
	}
	return &GenerationService{
		tax:       tax,
		llm:       llm,
		prompts:   prompts,
		cfg:       cfg,
		validator: rounds.NewValidator(tax),
		synth:     rounds.NewSynthesizer(tax, opts...),
	}
}

// SetAuditLog sets the audit log for generative calls.
func (s *GenerationService) SetAuditLog(audit driven.AuditLog) {
	s.audit = audit
}

// SetPoolCache sets the cache for curated pools.
func (s *GenerationService) SetPoolCache(cache driven.PoolCache) {
	s.cache = cache
}

// SetMetrics sets the metrics recorder.
func (s *GenerationService) SetMetrics(m driven.Metrics) {
	s.metrics = m
}

// generationJob is the state shared by the strategies of one request.
type generationJob struct {
	req     domain.GenerateRequest
	allowed []string

	// pool is the curated pool, set by the two-stage strategy.
	pool []domain.RealItem
}

func (j *generationJob) forcedTag() string {
	if len(j.allowed) == 1 {
		return j.allowed[0]
	}
	return ""
}

// minPool is the smallest pool worth a generative call.
func (j *generationJob) minPool() int {
	return max(minGenerativeItems, 2*j.req.Rounds)
}

type strategy interface {
	Name() string
	Generate(ctx context.Context, job *generationJob) ([]domain.Round, error)
}

// Generate returns exactly req.Rounds rounds. Unknown tags and a
// non-positive round count are input errors; every other failure falls
// back to the next strategy.
func (s *GenerationService) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req.Rounds < 1 {
		return nil, fmt.Errorf("%w: rounds must be at least 1", domain.ErrInvalidInput)
	}
	allowed, err := s.tax.ResolveTags(req.Tags)
	if err != nil {
		return nil, err
	}

	logger.Section("Round Generation")
	logger.Debug("History: %d items, rounds: %d, tags: %v, mode: %s", len(req.History), req.Rounds, allowed, s.cfg.Mode)

	job := &generationJob{req: req, allowed: allowed}
	return s.run(ctx, s.chain(), job)
}

// chain returns the strategies for the configured mode.
func (s *GenerationService) chain() []strategy {
	local := localStrategy{synth: s.synth}
	if s.llm == nil {
		return []strategy{local}
	}
	switch s.cfg.Mode {
	case domain.GenerationModeSingle:
		return []strategy{singleStageStrategy{s}, local}
	case domain.GenerationModeTwoStage:
		return []strategy{twoStageStrategy{s}, poolLocalStrategy{synth: s.synth}, local}
	default:
		return []strategy{local}
	}
}

func (s *GenerationService) run(ctx context.Context, chain []strategy, job *generationJob) (*domain.GenerateResult, error) {
	var lastErr error
	for _, st := range chain {
		start := time.Now()
		out, err := st.Generate(ctx, job)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			s.observe(st.Name(), outcomeError, elapsed)
			logger.Warn("strategy %s failed, falling back: %v", st.Name(), err)
			lastErr = err
			continue
		}
		s.observe(st.Name(), outcomeOK, elapsed)
		logger.Info("Generated %d rounds with strategy %s", len(out), st.Name())
		return &domain.GenerateResult{Rounds: out, Strategy: st.Name()}, nil
	}
	return nil, fmt.Errorf("all generation strategies failed: %w", lastErr)
}

func (s *GenerationService) observe(strategy, outcome string, seconds float64) {
	if s.metrics != nil {
		s.metrics.ObserveGeneration(strategy, outcome, seconds)
	}
}

// localStrategy synthesises rounds from history without the LLM.
type localStrategy struct {
	synth *rounds.Synthesizer
}

func (localStrategy) Name() string { return StrategyLocal }

func (l localStrategy) Generate(_ context.Context, job *generationJob) ([]domain.Round, error) {
	return l.synth.Synthesize(job.req.History, job.req.Rounds, job.req.Seed, job.allowed), nil
}

// poolLocalStrategy synthesises rounds from the curated pool.
type poolLocalStrategy struct {
	synth *rounds.Synthesizer
}

func (poolLocalStrategy) Name() string { return StrategyPoolLocal }

func (p poolLocalStrategy) Generate(_ context.Context, job *generationJob) ([]domain.Round, error) {
	if len(job.pool) == 0 {
		return nil, fmt.Errorf("%w: no curated pool", domain.ErrNotEnoughMaterial)
	}
	return p.synth.FromPool(job.pool, job.req.Rounds, job.req.Seed, job.allowed), nil
}

// singleStageStrategy asks the LLM for rounds over selected candidates.
type singleStageStrategy struct {
	s *GenerationService
}

func (singleStageStrategy) Name() string { return StrategySingle }

func (g singleStageStrategy) Generate(ctx context.Context, job *generationJob) ([]domain.Round, error) {
	opts := curation.SingleStageSelect
	opts.AllowedTags = job.allowed
	cands := curation.SelectCandidates(g.s.tax, job.req.History, opts)
	logger.Debug("Single-stage: %d candidates from %d history items", len(cands), len(job.req.History))

	if len(cands) < job.minPool() {
		return nil, fmt.Errorf("%w: %d candidates, need %d", domain.ErrNotEnoughMaterial, len(cands), job.minPool())
	}
	return g.s.writeRounds(ctx, job, rounds.PoolFromCandidates(g.s.tax, cands), StrategySingle)
}

// twoStageStrategy curates a pool first, then asks for rounds over it.
type twoStageStrategy struct {
	s *GenerationService
}

func (twoStageStrategy) Name() string { return StrategyTwoStage }

func (g twoStageStrategy) Generate(ctx context.Context, job *generationJob) ([]domain.Round, error) {
	job.pool = g.s.curatedPool(ctx, job)
	logger.Debug("Two-stage: curated pool of %d items", len(job.pool))

	if len(job.pool) < job.minPool() {
		return nil, fmt.Errorf("%w: curated pool of %d, need %d", domain.ErrNotEnoughMaterial, len(job.pool), job.minPool())
	}
	return g.s.writeRounds(ctx, job, job.pool, StrategyTwoStage)
}

// poolCacheKey identifies a curated pool by history, tags and size.
func (s *GenerationService) poolCacheKey(job *generationJob) string {
	if job.req.PoolKey == "" {
		return ""
	}
	tags := slices.Clone(job.allowed)
	slices.Sort(tags)
	return fmt.Sprintf("%s|%s|%d", job.req.PoolKey, strings.Join(tags, ","), s.cfg.PickN)
}

// curatedPool returns the cached pool, the LLM curator's pool, or the
// heuristic pool when curation is skipped or fails.
func (s *GenerationService) curatedPool(ctx context.Context, job *generationJob) []domain.RealItem {
	key := s.poolCacheKey(job)
	if key != "" && s.cache != nil {
		if pool, ok := s.cache.Get(key); ok {
			logger.Debug("Curated pool cache hit: %s", key)
			return pool
		}
	}

	pool, err := s.curate(ctx, job)
	if err != nil {
		logger.Warn("curation failed, using heuristic pool: %v", err)
		pool = rounds.HeuristicPool(s.tax, job.req.History, s.cfg.PickN, job.allowed)
	}

	if key != "" && s.cache != nil && len(pool) > 0 {
		s.cache.Add(key, pool)
	}
	return pool
}

type curatorPayload struct {
	PickN           int                  `json:"pick_n"`
	Seed            string               `json:"seed"`
	SelectedTags    []string             `json:"selected_tags"`
	ForcedTag       string               `json:"forced_tag"`
	TagDefinitions  []domain.Category    `json:"tag_definitions"`
	RawHistoryItems []rounds.CuratorItem `json:"RAW_HISTORY_ITEMS"`
}

func (s *GenerationService) curate(ctx context.Context, job *generationJob) ([]domain.RealItem, error) {
	raw := rounds.CuratorItems(job.req.History)
	if len(raw) < rounds.MinCuratorItems {
		return nil, fmt.Errorf("%w: %d raw items, need %d", domain.ErrNotEnoughMaterial, len(raw), rounds.MinCuratorItems)
	}

	system, err := s.prompts.Load(driven.PromptCuratorSystem)
	if err != nil {
		return nil, fmt.Errorf("load curator prompt: %w", err)
	}
	schema, err := rounds.MarshalSchema(rounds.CuratorSchema(s.cfg.PickN))
	if err != nil {
		return nil, err
	}

	payload := curatorPayload{
		PickN:           s.cfg.PickN,
		Seed:            job.req.Seed,
		SelectedTags:    job.allowed,
		ForcedTag:       job.forcedTag(),
		TagDefinitions:  s.tax.Categories(),
		RawHistoryItems: raw,
	}
	call := jsonCall{
		system:      system,
		payload:     payload,
		jsonClosing: closingPicks,
		format:      &driven.ResponseFormat{Type: driven.ResponseFormatJSONSchema, Name: rounds.CuratorSchemaName, Schema: schema},
		temperature: domain.DefaultCuratorTemperature,
		model:       s.cfg.CuratorModel,
	}
	summary := map[string]any{
		"stage":        "curator",
		"pick_n":       s.cfg.PickN,
		"seed":         job.req.Seed,
		"RAW_len":      len(raw),
		"allowed_tags": job.allowed,
	}

	text, structured, err := s.chatJSON(ctx, call)
	summary["structured_outputs"] = structured
	if err != nil {
		s.record(ctx, job, summary, text, nil, err)
		return nil, err
	}

	pool, err := rounds.NormalizeCuratorPicks(s.tax, rounds.ExtractJSON(text), raw, job.allowed, s.cfg.PickN)
	s.record(ctx, job, summary, text, curatedSummary(pool), err)
	return pool, err
}

func curatedSummary(pool []domain.RealItem) any {
	if pool == nil {
		return nil
	}
	return map[string]int{"curated_len": len(pool)}
}

type roundsPayload struct {
	NRounds         int               `json:"n_rounds"`
	Seed            string            `json:"seed"`
	RealItems       []domain.RealItem `json:"REAL_ITEMS"`
	SelectedTags    []string          `json:"selected_tags"`
	TagDefinitions  []domain.Category `json:"tag_definitions"`
	ForcedTag       string            `json:"forced_tag"`
	Note            string            `json:"note"`
	PreviousOutput  json.RawMessage   `json:"previous_output,omitempty"`
	ValidationError string            `json:"validation_error,omitempty"`
	Instructions    string            `json:"instructions,omitempty"`
}

// writeRounds runs the rounds call over a pool with a single repair
// attempt. A returned error means the caller should fall back.
func (s *GenerationService) writeRounds(ctx context.Context, job *generationJob, items []domain.RealItem, stage string) ([]domain.Round, error) {
	pool := rounds.NewPool(items)

	system, err := s.prompts.Load(driven.PromptRoundsSystem)
	if err != nil {
		return nil, fmt.Errorf("load rounds prompt: %w", err)
	}
	schema, err := rounds.MarshalSchema(rounds.RoundsSchema(job.req.Rounds, job.allowed, pool.MaxID()))
	if err != nil {
		return nil, err
	}

	payload := roundsPayload{
		NRounds:        job.req.Rounds,
		Seed:           job.req.Seed,
		RealItems:      items,
		SelectedTags:   job.allowed,
		TagDefinitions: s.tax.Categories(),
		ForcedTag:      job.forcedTag(),
		Note:           forcedTagNote,
	}
	call := jsonCall{
		system:      system,
		payload:     payload,
		jsonClosing: closingRounds,
		format:      &driven.ResponseFormat{Type: driven.ResponseFormatJSONSchema, Name: rounds.RoundsSchemaName, Schema: schema},
		temperature: s.cfg.Temperature,
	}
	summary := map[string]any{
		"stage":          stage,
		"allowed_tags":   job.allowed,
		"n_rounds":       job.req.Rounds,
		"seed":           job.req.Seed,
		"REAL_ITEMS_len": len(items),
	}

	text, structured, err := s.chatJSON(ctx, call)
	summary["structured_outputs"] = structured
	if err != nil {
		s.record(ctx, job, summary, text, nil, err)
		return nil, err
	}

	out, verr := s.validate(text, pool, job)
	if verr == nil {
		s.record(ctx, job, summary, text, out, nil)
		return out, nil
	}
	s.record(ctx, job, summary, text, nil, verr)
	logger.Warn("%s rounds rejected, attempting repair: %v", stage, verr)

	repair, err := s.prompts.Load(driven.PromptRepair)
	if err != nil {
		return nil, fmt.Errorf("load repair prompt: %w", err)
	}
	payload.PreviousOutput = previousOutput(text)
	payload.ValidationError = verr.Error()
	payload.Instructions = repair
	call.payload = payload
	call.jsonOnly = !structured
	summary["repair"] = true

	text, _, err = s.chatJSON(ctx, call)
	if err != nil {
		s.record(ctx, job, summary, text, nil, err)
		return nil, fmt.Errorf("repair call: %w", err)
	}
	out, err = s.validate(text, pool, job)
	if err != nil {
		s.record(ctx, job, summary, text, nil, err)
		return nil, fmt.Errorf("repair rejected: %w", err)
	}
	s.record(ctx, job, summary, text, out, nil)
	return out, nil
}

// validate checks a rounds document and its round count. Extra rounds are
// dropped; too few is a validation error.
func (s *GenerationService) validate(text string, pool *rounds.Pool, job *generationJob) ([]domain.Round, error) {
	opts := rounds.ValidateOptions{AllowedTags: job.allowed, ForcedTag: job.forcedTag()}
	out, err := s.validator.Validate(rounds.ExtractJSON(text), pool, opts)
	if err == nil && len(out) < job.req.Rounds {
		err = domain.NewValidationError(domain.ShapeRound, "round_count", "got %d rounds, want %d", len(out), job.req.Rounds)
	}
	if err != nil {
		var verr *domain.ValidationError
		if s.metrics != nil && errors.As(err, &verr) {
			s.metrics.ObserveValidationFailure(verr.Rule)
		}
		return nil, err
	}
	return out[:job.req.Rounds], nil
}

// previousOutput embeds the rejected reply as JSON when it parses, and as
// a string otherwise.
func previousOutput(text string) json.RawMessage {
	if doc := rounds.ExtractJSON(text); json.Valid(doc) {
		return doc
	}
	quoted, _ := json.Marshal(text)
	return quoted
}

// jsonCall is one request for a JSON document.
type jsonCall struct {
	system      string
	payload     any
	jsonClosing string
	format      *driven.ResponseFormat
	temperature float64
	model       string

	// jsonOnly skips the structured-output attempt.
	jsonOnly bool
}

// chatJSON asks for structured output first and retries once in plain
// JSON mode if the provider rejects the request. It reports whether the
// structured attempt succeeded.
func (s *GenerationService) chatJSON(ctx context.Context, call jsonCall) (string, bool, error) {
	user, err := json.Marshal(call.payload)
	if err != nil {
		return "", false, fmt.Errorf("marshal payload: %w", err)
	}
	messages := func(closing string) []driven.ChatMessage {
		return []driven.ChatMessage{
			{Role: driven.RoleSystem, Content: call.system},
			{Role: driven.RoleUser, Content: string(user)},
			{Role: driven.RoleUser, Content: closing},
		}
	}
	opts := driven.ChatOptions{Temperature: call.temperature, Model: call.model}

	if !call.jsonOnly && call.format != nil {
		opts.Format = call.format
		text, err := s.llm.Chat(ctx, messages(closingStructured), opts)
		if err == nil {
			return text, true, nil
		}
		if ctx.Err() != nil {
			return "", true, err
		}
		logger.Warn("structured output request failed, retrying in JSON mode: %v", err)
	}

	opts.Format = &driven.ResponseFormat{Type: driven.ResponseFormatJSONObject}
	text, err := s.llm.Chat(ctx, messages(call.jsonClosing), opts)
	if err != nil {
		return "", false, fmt.Errorf("chat: %w", err)
	}
	return text, false, nil
}

// record writes an audit record. Failures are the audit log's concern.
func (s *GenerationService) record(ctx context.Context, job *generationJob, request map[string]any, raw string, normalized any, err error) {
	if s.audit == nil {
		return
	}
	rec := domain.AuditRecord{
		Timestamp:   time.Now().UTC(),
		Meta:        job.req.Meta,
		Request:     maps.Clone(request),
		ResponseRaw: raw,
	}
	if normalized != nil {
		if data, mErr := json.Marshal(normalized); mErr == nil {
			rec.Normalized = data
		}
	}
	if err != nil {
		msg := err.Error()
		rec.Error = &msg
	}
	s.audit.Record(ctx, rec)
}
