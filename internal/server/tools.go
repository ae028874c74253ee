package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/user/movie-planner-go/internal/engine"
)

// Tool call errors
var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrBadParams   = errors.New("malformed parameters")
	ErrToolTimeout = errors.New("tool call timed out")
)

// Tool names
const (
	ToolSearch     = "search"
	ToolDetails    = "details"
	ToolRecommend  = "recommend"
	ToolTopByActor = "top_by_actor"
	ToolSimilar    = "similar"
	ToolPlaylist   = "playlist"
)

// SearchParams are the parameters of the search tool
type SearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit" validate:"gte=1,lte=1000"`
}

// DetailsParams are the parameters of the details tool
type DetailsParams struct {
	Title string `json:"title"`
}

// RecommendParams are the parameters of the recommend tool
type RecommendParams struct {
	Genres      []string `json:"genres"`
	MinVote     float64  `json:"min_vote" validate:"gte=0,lte=10"`
	FromYear    *int     `json:"from_year" validate:"omitempty,gte=0,lte=9999"`
	ToYear      *int     `json:"to_year" validate:"omitempty,gte=0,lte=9999"`
	Language    string   `json:"language"`
	IncludeCast []string `json:"include_cast"`
	Limit       int      `json:"limit" validate:"gte=1,lte=1000"`
}

// TopByActorParams are the parameters of the top_by_actor tool
type TopByActorParams struct {
	Actor string `json:"actor"`
	Limit int    `json:"limit" validate:"gte=1,lte=1000"`
}

// SimilarParams are the parameters of the similar tool
type SimilarParams struct {
	Title string `json:"title"`
	Limit int    `json:"limit" validate:"gte=1,lte=1000"`
}

// PlaylistParams are the parameters of the playlist tool
type PlaylistParams struct {
	TargetMinutes    int      `json:"target_minutes" validate:"gte=1,lte=100000"`
	PreferHighRating bool     `json:"prefer_high_rating"`
	Genres           []string `json:"genres"`
	Language         string   `json:"language"`
}

// Tool describes one callable tool
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Defaults    any    `json:"defaults"`

	invoke func(ctx context.Context, tb *Toolbox, params []byte) (any, error)
}

// newTool binds a parameter type to an engine call. Params start from the
// defaults, are overlaid with the request body, then validated.
func newTool[P any](name, description string, defaults func() P, run func(*engine.Engine, P) any) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Defaults:    defaults(),
		invoke: func(ctx context.Context, tb *Toolbox, raw []byte) (any, error) {
			p := defaults()
			if raw = bytes.TrimSpace(raw); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
				if err := json.Unmarshal(raw, &p); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadParams, err)
				}
			}
			if err := validateParams(&p); err != nil {
				return nil, err
			}
			return runWithTimeout(ctx, tb.timeout, func() any { return run(tb.engine, p) })
		},
	}
}

func catalogue() []Tool {
	return []Tool{
		newTool(ToolSearch, "Title search; returns brief metadata sorted by vote count, rating and popularity.",
			func() SearchParams { return SearchParams{Limit: 10} },
			func(e *engine.Engine, p SearchParams) any { return e.SearchTitle(p.Query, p.Limit) }),
		newTool(ToolDetails, "Exact or substring match details for a title, with cast, crew (Director/Writer/Screenplay) and keywords.",
			func() DetailsParams { return DetailsParams{} },
			func(e *engine.Engine, p DetailsParams) any {
				if d := e.GetDetails(p.Title); d != nil {
					return d
				}
				return struct{}{}
			}),
		newTool(ToolRecommend, "Multi-filter recommender: genres, min_vote, year range, language, include_cast.",
			func() RecommendParams { return RecommendParams{Limit: 20} },
			func(e *engine.Engine, p RecommendParams) any {
				return e.Recommend(engine.RecommendParams{
					Genres:      p.Genres,
					MinVote:     p.MinVote,
					FromYear:    p.FromYear,
					ToYear:      p.ToYear,
					Language:    p.Language,
					IncludeCast: p.IncludeCast,
					Limit:       p.Limit,
				})
			}),
		newTool(ToolTopByActor, "Top rated films for a given actor name.",
			func() TopByActorParams { return TopByActorParams{Limit: 15} },
			func(e *engine.Engine, p TopByActorParams) any { return e.TopByActor(p.Actor, p.Limit) }),
		newTool(ToolSimilar, "Keyword-overlap similarity to a given title.",
			func() SimilarParams { return SimilarParams{Limit: 15} },
			func(e *engine.Engine, p SimilarParams) any { return e.SimilarByKeyword(p.Title, p.Limit) }),
		newTool(ToolPlaylist, "Greedy watchlist fill to target_minutes using runtime; optional genres/language; bias toward rating or popularity.",
			func() PlaylistParams { return PlaylistParams{TargetMinutes: 480, PreferHighRating: true} },
			func(e *engine.Engine, p PlaylistParams) any {
				return e.BuildPlaylist(engine.PlaylistParams{
					TargetMinutes:    p.TargetMinutes,
					PreferHighRating: p.PreferHighRating,
					Genres:           p.Genres,
					Language:         p.Language,
				})
			}),
	}
}

// Toolbox dispatches tool calls to an engine under a per-call timeout
type Toolbox struct {
	engine  *engine.Engine
	timeout time.Duration
	tools   []Tool
	byName  map[string]Tool
}

// NewToolbox creates a toolbox over the engine
func NewToolbox(e *engine.Engine, timeout time.Duration) *Toolbox {
	tools := catalogue()
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	return &Toolbox{engine: e, timeout: timeout, tools: tools, byName: byName}
}

// Tools returns the tool catalogue
func (tb *Toolbox) Tools() []Tool {
	return tb.tools
}

// Has reports whether a tool is in the catalogue
func (tb *Toolbox) Has(name string) bool {
	_, ok := tb.byName[name]
	return ok
}

// Call invokes a tool with JSON params. An empty body means all defaults.
func (tb *Toolbox) Call(ctx context.Context, name string, params []byte) (any, error) {
	tool, ok := tb.byName[name]
	if !ok {
		RecordToolCall(statusUnknown, statusUnknown, 0)
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	result, err := tool.invoke(ctx, tb, params)
	took := time.Since(start)

	status := callStatus(err)
	RecordToolCall(name, status, took)
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Str("status", status).Dur("took", took).Msg("Tool call failed")
		return nil, err
	}
	log.Debug().Str("tool", name).Dur("took", took).Msg("Tool call completed")
	return result, nil
}

// CallWith marshals typed params and invokes the tool
func (tb *Toolbox) CallWith(ctx context.Context, name string, params any) (any, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	return tb.Call(ctx, name, raw)
}

// runWithTimeout runs fn in its own goroutine. On deadline the caller gets
// ErrToolTimeout and the late result is dropped.
func runWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func() T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan T, 1)
	go func() {
		done <- fn()
	}()

	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrToolTimeout
		}
		return zero, ctx.Err()
	}
}

const (
	statusOK      = "ok"
	statusInvalid = "invalid"
	statusTimeout = "timeout"
	statusError   = "error"
	statusUnknown = "unknown"
)

func callStatus(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, ErrToolTimeout):
		return statusTimeout
	case errors.Is(err, ErrBadParams), errors.As(err, &verr):
		return statusInvalid
	default:
		return statusError
	}
}
