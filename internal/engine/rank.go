package engine

import (
	"cmp"
	"slices"

	"github.com/user/movie-planner-go/internal/model"
)

// desc orders two nullable values highest first, nulls last
func desc[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

// sortByPopularVotes orders by (vote_count, vote_average, popularity) desc
func sortByPopularVotes(movies []*model.Movie) {
	slices.SortStableFunc(movies, func(a, b *model.Movie) int {
		return cmp.Or(
			desc(a.VoteCount, b.VoteCount),
			desc(a.VoteAverage, b.VoteAverage),
			desc(a.Popularity, b.Popularity),
		)
	})
}

// sortByRating orders by (vote_average, vote_count, popularity) desc
func sortByRating(movies []*model.Movie) {
	slices.SortStableFunc(movies, func(a, b *model.Movie) int {
		return cmp.Or(
			desc(a.VoteAverage, b.VoteAverage),
			desc(a.VoteCount, b.VoteCount),
			desc(a.Popularity, b.Popularity),
		)
	})
}

// sortForPlaylist orders by (vote_average, vote_count) desc when preferring
// ratings, otherwise by popularity desc
func sortForPlaylist(movies []*model.Movie, preferHighRating bool) {
	if preferHighRating {
		slices.SortStableFunc(movies, func(a, b *model.Movie) int {
			return cmp.Or(
				desc(a.VoteAverage, b.VoteAverage),
				desc(a.VoteCount, b.VoteCount),
			)
		})
		return
	}
	slices.SortStableFunc(movies, func(a, b *model.Movie) int {
		return desc(a.Popularity, b.Popularity)
	})
}
