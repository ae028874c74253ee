package model

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// MovieID is the external form of a movie id: an integer when the raw cell is a
// pure digit string, otherwise the raw text unchanged
type MovieID struct {
	Raw     string
	Num     int64
	Numeric bool
}

// ParseMovieID resolves a raw id cell
func ParseMovieID(raw string) MovieID {
	id := MovieID{Raw: raw}
	if isDigits(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			id.Num = n
			id.Numeric = true
		}
	}
	return id
}

// String returns the id in its display form
func (id MovieID) String() string {
	if id.Numeric {
		return strconv.FormatInt(id.Num, 10)
	}
	return id.Raw
}

// MarshalJSON emits a number, a string, or null for an empty id
func (id MovieID) MarshalJSON() ([]byte, error) {
	if id.Numeric {
		return []byte(strconv.FormatInt(id.Num, 10)), nil
	}
	if id.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(id.Raw)
}

// UnmarshalJSON accepts the three forms MarshalJSON emits
func (id *MovieID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = MovieID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*id = MovieID{Raw: raw}
		return nil
	}
	*id = ParseMovieID(string(data))
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Record is the external shape of a movie returned by every query
type Record struct {
	ID               MovieID  `json:"id"`
	ImdbID           string   `json:"imdb_id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	Genres           []string `json:"genres"`
	ReleaseDate      string   `json:"release_date"`
	ReleaseYear      *int     `json:"release_year"`
	Runtime          *float64 `json:"runtime"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        *int64   `json:"vote_count"`
	Popularity       *float64 `json:"popularity"`
	OriginalLanguage string   `json:"original_language"`
	Adult            bool     `json:"adult"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
}

// Details is a Record augmented with credits and keywords
type Details struct {
	Record
	Cast     []string `json:"cast"`
	Crew     []string `json:"crew"`
	Keywords []string `json:"keywords"`
}

// Playlist is the result of a runtime-bounded playlist build
type Playlist struct {
	Minutes int      `json:"minutes"`
	Count   int      `json:"count"`
	Items   []Record `json:"items"`
}

// Project maps a movie into its external record. It copies every nullable value so
// callers can never reach back into the loaded tables.
func Project(m *Movie) Record {
	return Record{
		ID:               ParseMovieID(m.RawID),
		ImdbID:           m.ImdbID,
		Title:            m.Title,
		Overview:         m.Overview,
		Genres:           m.Genres.Names(),
		ReleaseDate:      m.ReleaseDate,
		ReleaseYear:      clonePtr(m.ReleaseYear),
		Runtime:          clonePtr(m.Runtime),
		VoteAverage:      clonePtr(m.VoteAverage),
		VoteCount:        clonePtr(m.VoteCount),
		Popularity:       clonePtr(m.Popularity),
		OriginalLanguage: m.OriginalLanguage,
		Adult:            m.Adult,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
	}
}

// ProjectAll projects movies in order
func ProjectAll(movies []*Movie) []Record {
	out := make([]Record, 0, len(movies))
	for _, m := range movies {
		out = append(out, Project(m))
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
