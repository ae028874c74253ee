package engine

import (
	"strings"

	"github.com/user/movie-planner-go/internal/index"
	"github.com/user/movie-planner-go/internal/model"
)

// Year bounds assumed for movies without a release year
const (
	unknownYearLow  = 0
	unknownYearHigh = 9999
)

// RecommendParams are the filters of a recommendation. Zero values disable a filter,
// except MinVote which always applies.
type RecommendParams struct {
	Genres      []string
	MinVote     float64
	FromYear    *int
	ToYear      *int
	Language    string
	IncludeCast []string
	Limit       int
}

// Recommend keeps the movies passing every filter and returns the best rated first
func (e *Engine) Recommend(p RecommendParams) []model.Record {
	if p.Limit <= 0 {
		return []model.Record{}
	}

	idx := e.Index()
	genres := foldSet(p.Genres)
	cast := foldSet(p.IncludeCast)
	language := strings.ToLower(strings.TrimSpace(p.Language))

	var kept []*model.Movie
	for _, m := range idx.Movies {
		if p.FromYear != nil && yearOr(m, unknownYearLow) < *p.FromYear {
			continue
		}
		if p.ToYear != nil && yearOr(m, unknownYearHigh) > *p.ToYear {
			continue
		}
		if !languageMatches(m, language) {
			continue
		}
		if len(genres) > 0 && !m.HasGenre(genres) {
			continue
		}
		if len(cast) > 0 && !idx.CastIncludesAny(m, cast) {
			continue
		}
		if voteOrZero(m) < p.MinVote {
			continue
		}
		kept = append(kept, m)
	}

	sortByRating(kept)
	return model.ProjectAll(truncate(kept, p.Limit))
}

// TopByActor returns the best rated movies whose cast includes actor, matched
// exactly but case-insensitively
func (e *Engine) TopByActor(actor string, limit int) []model.Record {
	name := strings.ToLower(strings.TrimSpace(actor))
	if name == "" || limit <= 0 {
		return []model.Record{}
	}

	idx := e.Index()
	wanted := map[string]struct{}{name: {}}
	var kept []*model.Movie
	for _, m := range idx.Movies {
		if idx.CastIncludesAny(m, wanted) {
			kept = append(kept, m)
		}
	}

	sortByRating(kept)
	return model.ProjectAll(truncate(kept, limit))
}

// filterGenreLanguage applies the genre (any of) and language filters shared by
// Recommend and BuildPlaylist
func filterGenreLanguage(idx *index.Index, genres []string, language string) []*model.Movie {
	wanted := foldSet(genres)
	lang := strings.ToLower(strings.TrimSpace(language))

	var kept []*model.Movie
	for _, m := range idx.Movies {
		if len(wanted) > 0 && !m.HasGenre(wanted) {
			continue
		}
		if !languageMatches(m, lang) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// foldSet lower-cases and trims values; blank values are dropped
func foldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func languageMatches(m *model.Movie, folded string) bool {
	return folded == "" || strings.ToLower(m.OriginalLanguage) == folded
}

func yearOr(m *model.Movie, fallback int) int {
	if m.ReleaseYear == nil {
		return fallback
	}
	return *m.ReleaseYear
}

func voteOrZero(m *model.Movie) float64 {
	if m.VoteAverage == nil {
		return 0
	}
	return *m.VoteAverage
}
