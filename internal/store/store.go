package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/movie-planner-go/internal/model"
)

// Table names, shared by every source
const (
	TableMovies   = "movies_metadata"
	TableCredits  = "credits"
	TableKeywords = "keywords"
	TableRatings  = "ratings_small"
)

// Tables lists every table the store loads
var Tables = []string{TableMovies, TableCredits, TableKeywords, TableRatings}

// ErrTableNotFound is returned by a Source when a table has no backing data
var ErrTableNotFound = errors.New("table not found")

// Source reads one raw table by name
type Source interface {
	Open(ctx context.Context, table string) (*RawTable, error)
}

// Pinger is implemented by sources backed by a live connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// RawTable is an untyped table: a header and string cells
type RawTable struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewRawTable builds a table, normalizing header names
func NewRawTable(header []string, rows [][]string) *RawTable {
	t := &RawTable{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}
	return t
}

// Column returns the position of a column, or -1 when absent
func (t *RawTable) Column(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Cell returns a cell by column position, or "" for missing columns and short rows
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// LoadHook is called once per table after its cold load
type LoadHook func(table string, rows int, took time.Duration)

// Store holds the four dataset tables. Each table is read from the source on first
// access and then kept for the lifetime of the Store; tables never change after load.
type Store struct {
	source Source
	onLoad LoadHook

	movies   lazy[*model.Movie]
	credits  lazy[*model.Credits]
	keywords lazy[*model.Keywords]
	ratings  lazy[*model.Rating]
}

type lazy[T any] struct {
	once sync.Once
	rows []T
}

func (l *lazy[T]) get(load func() []T) []T {
	l.once.Do(func() {
		l.rows = load()
	})
	return l.rows
}

// Option configures a Store
type Option func(*Store)

// WithLoadHook registers a callback for finished table loads
func WithLoadHook(hook LoadHook) Option {
	return func(s *Store) {
		s.onLoad = hook
	}
}

// New creates a Store over the given source. Nothing is read until a table is
// requested or Warm is called.
func New(source Source, opts ...Option) *Store {
	s := &Store{source: source}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Warm performs the cold load of every table
func (s *Store) Warm(ctx context.Context) {
	s.movies.get(func() []*model.Movie { return loadTable(ctx, s, TableMovies, coerceMovies) })
	s.credits.get(func() []*model.Credits { return loadTable(ctx, s, TableCredits, coerceCredits) })
	s.keywords.get(func() []*model.Keywords { return loadTable(ctx, s, TableKeywords, coerceKeywords) })
	s.ratings.get(func() []*model.Rating { return loadTable(ctx, s, TableRatings, coerceRatings) })
}

// Movies returns the movies table in source order
func (s *Store) Movies() []*model.Movie {
	return s.movies.get(func() []*model.Movie {
		return loadTable(context.Background(), s, TableMovies, coerceMovies)
	})
}

// Credits returns the credits table in source order
func (s *Store) Credits() []*model.Credits {
	return s.credits.get(func() []*model.Credits {
		return loadTable(context.Background(), s, TableCredits, coerceCredits)
	})
}

// Keywords returns the keywords table in source order
func (s *Store) Keywords() []*model.Keywords {
	return s.keywords.get(func() []*model.Keywords {
		return loadTable(context.Background(), s, TableKeywords, coerceKeywords)
	})
}

// Ratings returns the ratings table in source order
func (s *Store) Ratings() []*model.Rating {
	return s.ratings.get(func() []*model.Rating {
		return loadTable(context.Background(), s, TableRatings, coerceRatings)
	})
}

// Ping checks the source's connection. Sources without one are always reachable.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.source.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Counts returns the row count of every table, loading any that are still cold
func (s *Store) Counts() map[string]int {
	return map[string]int{
		TableMovies:   len(s.Movies()),
		TableCredits:  len(s.Credits()),
		TableKeywords: len(s.Keywords()),
		TableRatings:  len(s.Ratings()),
	}
}

// loadTable reads and coerces one table. Any failure degrades to an empty table.
func loadTable[T any](ctx context.Context, s *Store, table string, coerce func(*RawTable) []T) []T {
	start := time.Now()
	rows := []T{}

	raw, err := s.source.Open(ctx, table)
	switch {
	case errors.Is(err, ErrTableNotFound):
		log.Warn().Str("table", table).Msg("Table not found, using empty table")
	case err != nil:
		log.Warn().Err(err).Str("table", table).Msg("Failed to read table, using empty table")
	default:
		rows = coerce(raw)
	}

	took := time.Since(start)
	log.Info().Str("table", table).Int("rows", len(rows)).Dur("took", took).Msg("Table loaded")
	if s.onLoad != nil {
		s.onLoad(table, len(rows), took)
	}
	return rows
}
