package model

import (
	"strings"
)

// Entry is one structured record parsed from a list-of-object cell
// (a genre, a cast member, a crew member, a keyword, a company...)
type Entry struct {
	ID         string
	Name       string
	Job        string
	Department string
	Character  string
	ISO        string
}

// GenreKind tells which branch of a GenreField is populated
type GenreKind int

const (
	GenreStructured GenreKind = iota
	GenreRaw
)

// GenreField holds a movie's genres either as parsed entries or as the raw cell text
type GenreField struct {
	Kind       GenreKind
	Structured []Entry
	Raw        string
}

// StructuredGenres wraps parsed genre entries
func StructuredGenres(entries []Entry) GenreField {
	return GenreField{Kind: GenreStructured, Structured: entries}
}

// RawGenres wraps a genre cell that is not a list literal
func RawGenres(raw string) GenreField {
	return GenreField{Kind: GenreRaw, Raw: raw}
}

// Names resolves the field into plain genre names. Raw cells are split on "|".
func (g GenreField) Names() []string {
	names := make([]string, 0, len(g.Structured))
	switch g.Kind {
	case GenreStructured:
		for _, e := range g.Structured {
			if name := strings.TrimSpace(e.Name); name != "" {
				names = append(names, name)
			}
		}
	case GenreRaw:
		for _, part := range strings.Split(g.Raw, "|") {
			if name := strings.TrimSpace(part); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// Movie is one coerced row of the movies metadata table
type Movie struct {
	// RawID is the id cell as read; it is the join key for credits and keywords
	RawID            string
	ImdbID           string
	Title            string
	NormalizedTitle  string
	Overview         string
	Genres           GenreField
	ReleaseDate      string
	ReleaseYear      *int
	Runtime          *float64
	VoteAverage      *float64
	VoteCount        *int64
	Popularity       *float64
	Budget           *float64
	Revenue          *float64
	OriginalLanguage string
	Adult            bool
	PosterPath       string
	BackdropPath     string

	ProductionCompanies []Entry
	ProductionCountries []Entry
	SpokenLanguages     []Entry
}

// HasGenre reports whether any of the movie's genre names is in the
// lower-cased set
func (m *Movie) HasGenre(wanted map[string]struct{}) bool {
	for _, name := range m.Genres.Names() {
		if _, ok := wanted[strings.ToLower(name)]; ok {
			return true
		}
	}
	return false
}

// Credits holds the cast and crew of one movie
type Credits struct {
	MovieID string
	Cast    []Entry
	Crew    []Entry
}

// Keywords holds the keyword entries of one movie
type Keywords struct {
	MovieID  string
	Keywords []Entry
}

// Rating is one user rating. Ratings are loaded but no query reads them.
type Rating struct {
	UserID    *int64
	MovieID   string
	Rating    *float64
	Timestamp *int64
}

// NormalizeTitle trims and lower-cases a title for lookups
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// JoinKey canonicalizes a raw id cell for joining movies with credits and keywords.
// Integral values ("862", " 862", "862.0") share one key; anything else is kept
// trimmed as an opaque key.
func JoinKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if isDigits(raw) {
		return strings.TrimLeft(raw, "0") + "#"
	}
	if whole, frac, ok := strings.Cut(raw, "."); ok && isDigits(whole) && strings.Trim(frac, "0") == "" {
		return strings.TrimLeft(whole, "0") + "#"
	}
	return raw
}
