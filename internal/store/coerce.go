package store

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/user/movie-planner-go/internal/model"
)

// coerceMovies types every movies_metadata row. Bad cells become nil or empty
// values; rows are never dropped.
func coerceMovies(t *RawTable) []*model.Movie {
	var (
		cID        = t.Column("id")
		cImdb      = t.Column("imdb_id")
		cTitle     = t.Column("title")
		cOverview  = t.Column("overview")
		cGenres    = t.Column("genres")
		cRelease   = t.Column("release_date")
		cRuntime   = t.Column("runtime")
		cVoteAvg   = t.Column("vote_average")
		cVoteCount = t.Column("vote_count")
		cPop       = t.Column("popularity")
		cBudget    = t.Column("budget")
		cRevenue   = t.Column("revenue")
		cLang      = t.Column("original_language")
		cAdult     = t.Column("adult")
		cPoster    = t.Column("poster_path")
		cBackdrop  = t.Column("backdrop_path")
		cCompanies = t.Column("production_companies")
		cCountries = t.Column("production_countries")
		cSpoken    = t.Column("spoken_languages")
	)

	movies := make([]*model.Movie, 0, len(t.Rows))
	for _, row := range t.Rows {
		title := Cell(row, cTitle)
		releaseDate := Cell(row, cRelease)
		movies = append(movies, &model.Movie{
			RawID:               Cell(row, cID),
			ImdbID:              Cell(row, cImdb),
			Title:               title,
			NormalizedTitle:     model.NormalizeTitle(title),
			Overview:            Cell(row, cOverview),
			Genres:              parseGenres(Cell(row, cGenres)),
			ReleaseDate:         releaseDate,
			ReleaseYear:         parseYear(releaseDate),
			Runtime:             parseFloat(Cell(row, cRuntime)),
			VoteAverage:         parseFloat(Cell(row, cVoteAvg)),
			VoteCount:           parseInt(Cell(row, cVoteCount)),
			Popularity:          parseFloat(Cell(row, cPop)),
			Budget:              parseFloat(Cell(row, cBudget)),
			Revenue:             parseFloat(Cell(row, cRevenue)),
			OriginalLanguage:    strings.TrimSpace(Cell(row, cLang)),
			Adult:               parseBool(Cell(row, cAdult)),
			PosterPath:          Cell(row, cPoster),
			BackdropPath:        Cell(row, cBackdrop),
			ProductionCompanies: ParseEntries(Cell(row, cCompanies)),
			ProductionCountries: ParseEntries(Cell(row, cCountries)),
			SpokenLanguages:     ParseEntries(Cell(row, cSpoken)),
		})
	}
	return movies
}

func coerceCredits(t *RawTable) []*model.Credits {
	cID, cCast, cCrew := t.Column("id"), t.Column("cast"), t.Column("crew")
	credits := make([]*model.Credits, 0, len(t.Rows))
	for _, row := range t.Rows {
		credits = append(credits, &model.Credits{
			MovieID: Cell(row, cID),
			Cast:    ParseEntries(Cell(row, cCast)),
			Crew:    ParseEntries(Cell(row, cCrew)),
		})
	}
	return credits
}

func coerceKeywords(t *RawTable) []*model.Keywords {
	cID, cKeywords := t.Column("id"), t.Column("keywords")
	keywords := make([]*model.Keywords, 0, len(t.Rows))
	for _, row := range t.Rows {
		keywords = append(keywords, &model.Keywords{
			MovieID:  Cell(row, cID),
			Keywords: ParseEntries(Cell(row, cKeywords)),
		})
	}
	return keywords
}

func coerceRatings(t *RawTable) []*model.Rating {
	cUser, cMovie, cRating, cTS := t.Column("userId"), t.Column("movieId"), t.Column("rating"), t.Column("timestamp")
	ratings := make([]*model.Rating, 0, len(t.Rows))
	for _, row := range t.Rows {
		ratings = append(ratings, &model.Rating{
			UserID:    parseInt(Cell(row, cUser)),
			MovieID:   Cell(row, cMovie),
			Rating:    parseFloat(Cell(row, cRating)),
			Timestamp: parseInt(Cell(row, cTS)),
		})
	}
	return ratings
}

// parseGenres keeps list cells structured and anything else raw
func parseGenres(cell string) model.GenreField {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || strings.HasPrefix(trimmed, "[") || strings.EqualFold(trimmed, "nan") {
		return model.StructuredGenres(ParseEntries(trimmed))
	}
	return model.RawGenres(trimmed)
}

func parseFloat(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// parseInt accepts integral floats ("12.0") since exports often write counts that way
func parseInt(cell string) *int64 {
	f := parseFloat(cell)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt64/2 {
		return nil
	}
	n := int64(*f)
	return &n
}

// parseBool is true only for a literal true cell; anything else, including junk, is false
func parseBool(cell string) bool {
	switch strings.TrimSpace(cell) {
	case "True", "true", "TRUE":
		return true
	}
	return false
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01", "2006", "1/2/2006"}

// parseYear extracts the release year, nil when no layout matches
func parseYear(cell string) *int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			y := ts.Year()
			return &y
		}
	}
	return nil
}
