// Package index derives the lookup structures the query engine joins through.
// An Index is built once from a loaded store and is read-only afterwards.
package index

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/movie-planner-go/internal/model"
	"github.com/user/movie-planner-go/internal/store"
)

// KeywordRow is one keywords row with its case-folded keyword set
type KeywordRow struct {
	Key      string
	Row      *model.Keywords
	Folded   map[string]struct{}
	Position int
}

// Index holds the derived lookups over one store snapshot
type Index struct {
	Movies []*model.Movie

	byTitle    map[string][]int
	byKey      map[string]int
	credits    map[string]*model.Credits
	castNames  map[string]map[string]struct{}
	keywords   map[string]*KeywordRow
	keywordSeq []*KeywordRow
}

// Build derives every lookup from the store, loading cold tables as needed
func Build(s *store.Store) *Index {
	start := time.Now()
	movies := s.Movies()
	credits := s.Credits()
	keywords := s.Keywords()

	idx := &Index{
		Movies:    movies,
		byTitle:   make(map[string][]int, len(movies)),
		byKey:     make(map[string]int, len(movies)),
		credits:   make(map[string]*model.Credits, len(credits)),
		castNames: make(map[string]map[string]struct{}, len(credits)),
		keywords:  make(map[string]*KeywordRow, len(keywords)),
	}

	for i, m := range movies {
		idx.byTitle[m.NormalizedTitle] = append(idx.byTitle[m.NormalizedTitle], i)
		key := model.JoinKey(m.RawID)
		if _, seen := idx.byKey[key]; !seen {
			idx.byKey[key] = i
		}
	}

	for _, c := range credits {
		key := model.JoinKey(c.MovieID)
		if _, seen := idx.credits[key]; seen {
			continue
		}
		idx.credits[key] = c
		names := make(map[string]struct{}, len(c.Cast))
		for _, p := range c.Cast {
			names[strings.ToLower(strings.TrimSpace(p.Name))] = struct{}{}
		}
		idx.castNames[key] = names
	}

	for i, k := range keywords {
		key := model.JoinKey(k.MovieID)
		if _, seen := idx.keywords[key]; seen {
			continue
		}
		row := &KeywordRow{Key: key, Row: k, Folded: FoldKeywords(k.Keywords), Position: i}
		idx.keywords[key] = row
		idx.keywordSeq = append(idx.keywordSeq, row)
	}

	log.Info().
		Int("movies", len(movies)).
		Int("credits", len(idx.credits)).
		Int("keywords", len(idx.keywordSeq)).
		Dur("took", time.Since(start)).
		Msg("Index built")
	return idx
}

// FoldKeywords returns the lower-cased set of non-empty keyword names
func FoldKeywords(entries []model.Entry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if name := strings.ToLower(strings.TrimSpace(e.Name)); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// ByTitle returns the movies whose normalized title equals title, in table order
func (idx *Index) ByTitle(title string) []*model.Movie {
	positions := idx.byTitle[model.NormalizeTitle(title)]
	out := make([]*model.Movie, 0, len(positions))
	for _, p := range positions {
		out = append(out, idx.Movies[p])
	}
	return out
}

// ByKey returns the first movie with the given join key
func (idx *Index) ByKey(key string) (*model.Movie, bool) {
	p, ok := idx.byKey[key]
	if !ok {
		return nil, false
	}
	return idx.Movies[p], true
}

// Credits returns the first credits row of a movie
func (idx *Index) Credits(m *model.Movie) (*model.Credits, bool) {
	c, ok := idx.credits[model.JoinKey(m.RawID)]
	return c, ok
}

// CastIncludesAny reports whether the movie's cast contains any of the lower-cased names
func (idx *Index) CastIncludesAny(m *model.Movie, names map[string]struct{}) bool {
	cast := idx.castNames[model.JoinKey(m.RawID)]
	for name := range names {
		if _, ok := cast[name]; ok {
			return true
		}
	}
	return false
}

// Keywords returns the first keywords row of a movie
func (idx *Index) Keywords(m *model.Movie) (*KeywordRow, bool) {
	k, ok := idx.keywords[model.JoinKey(m.RawID)]
	return k, ok
}

// KeywordRows returns the keyword rows in table order, one per movie id
func (idx *Index) KeywordRows() []*KeywordRow {
	return idx.keywordSeq
}
