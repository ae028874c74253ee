package engine

import (
	"slices"

	"github.com/user/movie-planner-go/internal/index"
	"github.com/user/movie-planner-go/internal/model"
)

// SimilarByKeyword ranks movies by how many keywords they share with the movie
// titled exactly title. There is no substring fallback here. Ties keep keyword
// table order. Keyword rows without a movie are skipped while filling up to limit.
func (e *Engine) SimilarByKeyword(title string, limit int) []model.Record {
	q := model.NormalizeTitle(title)
	if q == "" || limit <= 0 {
		return []model.Record{}
	}

	idx := e.Index()
	refs := idx.ByTitle(q)
	if len(refs) == 0 {
		return []model.Record{}
	}
	ref, ok := idx.Keywords(refs[0])
	if !ok || len(ref.Folded) == 0 {
		return []model.Record{}
	}

	type scored struct {
		row     *index.KeywordRow
		overlap int
	}
	var candidates []scored
	for _, row := range idx.KeywordRows() {
		if row.Key == ref.Key {
			continue
		}
		if n := overlap(ref.Folded, row.Folded); n > 0 {
			candidates = append(candidates, scored{row: row, overlap: n})
		}
	}
	slices.SortStableFunc(candidates, func(a, b scored) int {
		return b.overlap - a.overlap
	})

	var results []*model.Movie
	for _, c := range candidates {
		if len(results) == limit {
			break
		}
		if m, ok := idx.ByKey(c.row.Key); ok {
			results = append(results, m)
		}
	}
	return model.ProjectAll(results)
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
