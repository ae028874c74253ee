// Package engine answers movie queries over a loaded dataset: title search,
// detail lookup, filtered recommendation, actor filmography, keyword similarity
// and runtime-bounded playlists.
//
// Every query is read-only. Once the store is warm, an Engine can serve any
// number of queries in parallel without locking.
package engine

import (
	"strings"
	"sync"

	"github.com/user/movie-planner-go/internal/index"
	"github.com/user/movie-planner-go/internal/model"
	"github.com/user/movie-planner-go/internal/store"
)

// Detail view limits
const (
	MaxDetailCast = 15
)

// detailCrewJobs are the crew jobs surfaced by GetDetails
var detailCrewJobs = map[string]struct{}{
	"Director":   {},
	"Writer":     {},
	"Screenplay": {},
}

// Engine runs queries against one store
type Engine struct {
	store *store.Store

	once sync.Once
	idx  *index.Index
}

// New creates an engine. The index is built on the first query.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Index returns the engine's index, building it on first use
func (e *Engine) Index() *index.Index {
	e.once.Do(func() {
		e.idx = index.Build(e.store)
	})
	return e.idx
}

// SearchTitle returns movies whose title contains query, most voted first.
// A blank query matches nothing.
func (e *Engine) SearchTitle(query string, limit int) []model.Record {
	q := model.NormalizeTitle(query)
	if q == "" || limit <= 0 {
		return []model.Record{}
	}

	var matches []*model.Movie
	for _, m := range e.Index().Movies {
		if strings.Contains(m.NormalizedTitle, q) {
			matches = append(matches, m)
		}
	}
	sortByPopularVotes(matches)
	return model.ProjectAll(truncate(matches, limit))
}

// GetDetails looks a title up exactly, falling back to the first movie (in table
// order) whose title contains it. It returns nil when nothing matches.
func (e *Engine) GetDetails(title string) *model.Details {
	q := model.NormalizeTitle(title)
	if q == "" {
		return nil
	}

	idx := e.Index()
	var movie *model.Movie
	if exact := idx.ByTitle(q); len(exact) > 0 {
		movie = exact[0]
	} else {
		for _, m := range idx.Movies {
			if strings.Contains(m.NormalizedTitle, q) {
				movie = m
				break
			}
		}
	}
	if movie == nil {
		return nil
	}

	details := &model.Details{
		Record:   model.Project(movie),
		Cast:     []string{},
		Crew:     []string{},
		Keywords: []string{},
	}

	if credits, ok := idx.Credits(movie); ok {
		for i, p := range credits.Cast {
			if i == MaxDetailCast {
				break
			}
			details.Cast = append(details.Cast, p.Name)
		}
		for _, p := range credits.Crew {
			if _, ok := detailCrewJobs[p.Job]; ok {
				details.Crew = append(details.Crew, p.Name+" ("+p.Job+")")
			}
		}
	}

	if kw, ok := idx.Keywords(movie); ok {
		for _, k := range kw.Row.Keywords {
			details.Keywords = append(details.Keywords, k.Name)
		}
	}

	return details
}

func truncate(movies []*model.Movie, limit int) []*model.Movie {
	if limit <= 0 {
		return nil
	}
	if len(movies) > limit {
		return movies[:limit]
	}
	return movies
}
