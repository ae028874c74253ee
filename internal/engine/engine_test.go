package engine

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/user/movie-planner-go/internal/model"
	"github.com/user/movie-planner-go/internal/store"
)

var (
	movieHeader   = []string{"id", "title", "genres", "original_language", "release_date", "runtime", "vote_average", "vote_count", "popularity"}
	creditsHeader = []string{"id", "cast", "crew"}
	keywordHeader = []string{"id", "keywords"}
)

type row map[string]string

func toRows(header []string, rows []row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, len(header))
		for i, col := range header {
			cells[i] = r[col]
		}
		out = append(out, cells)
	}
	return out
}

// newEngine builds an engine over in-memory tables. A nil slice leaves the table absent.
func newEngine(movies, credits, keywords []row) *Engine {
	src := store.NewStaticSource()
	if movies != nil {
		src.Put(store.TableMovies, movieHeader, toRows(movieHeader, movies)...)
	}
	if credits != nil {
		src.Put(store.TableCredits, creditsHeader, toRows(creditsHeader, credits)...)
	}
	if keywords != nil {
		src.Put(store.TableKeywords, keywordHeader, toRows(keywordHeader, keywords)...)
	}
	return New(store.New(src))
}

func genres(names ...string) string {
	var parts []string
	for i, n := range names {
		parts = append(parts, "{'id': "+strconv.Itoa(i)+", 'name': '"+n+"'}")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func people(names ...string) string {
	var parts []string
	for _, n := range names {
		parts = append(parts, "{'name': '"+n+"'}")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func crew(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, "{'name': '"+pairs[i]+"', 'job': '"+pairs[i+1]+"'}")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func ids(records []model.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID.String())
	}
	return out
}

func TestBuildPlaylist_SkipsTooLongAndContinues(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "A", "runtime": "120", "vote_average": "8"},
		{"id": "2", "title": "B", "runtime": "200", "vote_average": "9"},
	}, nil, nil)

	for _, preferHigh := range []bool{true, false} {
		got := e.BuildPlaylist(PlaylistParams{TargetMinutes: 150, PreferHighRating: preferHigh})
		if got.Minutes != 120 || got.Count != 1 {
			t.Errorf("preferHigh=%v: minutes=%d count=%d, want 120 and 1", preferHigh, got.Minutes, got.Count)
		}
		if !reflect.DeepEqual(ids(got.Items), []string{"1"}) {
			t.Errorf("preferHigh=%v: items = %v, want [1]", preferHigh, ids(got.Items))
		}
	}
}

func TestBuildPlaylist_EarlyExitAndOrder(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "low", "runtime": "100", "vote_average": "5", "popularity": "90"},
		{"id": "2", "title": "top", "runtime": "90", "vote_average": "9", "popularity": "10"},
		{"id": "3", "title": "mid", "runtime": "95", "vote_average": "7", "popularity": "50"},
		{"id": "4", "title": "unknown runtime", "runtime": "", "vote_average": "10"},
		{"id": "5", "title": "zero runtime", "runtime": "0", "vote_average": "9.5"},
	}, nil, nil)

	got := e.BuildPlaylist(PlaylistParams{TargetMinutes: 190, PreferHighRating: true})
	// 90 + 95 = 185 >= 0.95 * 190 = 180.5, so the scan stops before "low"
	if !reflect.DeepEqual(ids(got.Items), []string{"2", "3"}) || got.Minutes != 185 {
		t.Errorf("rating order: items=%v minutes=%d, want [2 3] and 185", ids(got.Items), got.Minutes)
	}

	got = e.BuildPlaylist(PlaylistParams{TargetMinutes: 190, PreferHighRating: false})
	if !reflect.DeepEqual(ids(got.Items), []string{"1", "2"}) || got.Minutes != 190 {
		t.Errorf("popularity order: items=%v minutes=%d, want [1 2] and 190", ids(got.Items), got.Minutes)
	}
}

func TestBuildPlaylist_TruncatesMinutesAndFilters(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "a", "runtime": "90.7", "genres": genres("Drama"), "original_language": "en"},
		{"id": "2", "title": "b", "runtime": "60", "genres": genres("Comedy"), "original_language": "en"},
		{"id": "3", "title": "c", "runtime": "60", "genres": genres("Drama"), "original_language": "fr"},
	}, nil, nil)

	got := e.BuildPlaylist(PlaylistParams{TargetMinutes: 480, PreferHighRating: true, Genres: []string{"drama"}, Language: "EN"})
	if got.Minutes != 90 || got.Count != 1 || ids(got.Items)[0] != "1" {
		t.Errorf("got minutes=%d count=%d items=%v, want 90, 1, [1]", got.Minutes, got.Count, ids(got.Items))
	}

	empty := newEngine(nil, nil, nil).BuildPlaylist(PlaylistParams{TargetMinutes: 480})
	if empty.Minutes != 0 || empty.Count != 0 || empty.Items == nil || len(empty.Items) != 0 {
		t.Errorf("empty dataset playlist = %+v, want zero with empty items", empty)
	}
}

func TestRecommend_NullVoteExcludedByPositiveThreshold(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "rated", "vote_average": "6"},
		{"id": "2", "title": "unrated"},
	}, nil, nil)

	if got := ids(e.Recommend(RecommendParams{MinVote: 5.0, Limit: 20})); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("Recommend(min_vote=5) = %v, want [1]", got)
	}
	if got := ids(e.Recommend(RecommendParams{MinVote: 0, Limit: 20})); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Recommend(min_vote=0) = %v, want [1 2]", got)
	}
}

func TestRecommend_Filters(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "old drama", "genres": genres("Drama"), "original_language": "en", "release_date": "1980-01-01", "vote_average": "7"},
		{"id": "2", "title": "new comedy", "genres": genres("Comedy"), "original_language": "en", "release_date": "2010-05-05", "vote_average": "8"},
		{"id": "3", "title": "french drama", "genres": genres("Drama", "Romance"), "original_language": "fr", "release_date": "2001", "vote_average": "9"},
		{"id": "4", "title": "undated", "genres": genres("Drama"), "original_language": "en", "vote_average": "6"},
	}, []row{
		{"id": "1", "cast": people("Meryl Streep")},
		{"id": "3", "cast": people("Juliette Binoche", "Meryl Streep")},
	}, nil)

	year := func(y int) *int { return &y }
	tests := []struct {
		name   string
		params RecommendParams
		want   []string
	}{
		{name: "no filters ranks by rating", params: RecommendParams{}, want: []string{"3", "2", "1", "4"}},
		{name: "from year keeps unknown year out", params: RecommendParams{FromYear: year(2000)}, want: []string{"3", "2"}},
		{name: "to year keeps unknown year out", params: RecommendParams{ToYear: year(2005)}, want: []string{"3", "1"}},
		{name: "from year zero keeps unknown year", params: RecommendParams{FromYear: year(0)}, want: []string{"3", "2", "1", "4"}},
		{name: "to year 9999 keeps unknown year", params: RecommendParams{ToYear: year(9999)}, want: []string{"3", "2", "1", "4"}},
		{name: "language case insensitive", params: RecommendParams{Language: "FR"}, want: []string{"3"}},
		{name: "genres any of", params: RecommendParams{Genres: []string{"romance", "COMEDY"}}, want: []string{"3", "2"}},
		{name: "cast exact name", params: RecommendParams{IncludeCast: []string{"meryl streep"}}, want: []string{"3", "1"}},
		{name: "cast substring does not match", params: RecommendParams{IncludeCast: []string{"meryl"}}, want: []string{}},
		{
			name:   "filters combine with AND",
			params: RecommendParams{Genres: []string{"drama"}, Language: "en", IncludeCast: []string{"Meryl Streep"}},
			want:   []string{"1"},
		},
		{name: "min vote", params: RecommendParams{MinVote: 7.5}, want: []string{"3", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.Limit = 20
			if got := ids(e.Recommend(tt.params)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Recommend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecommend_TieBreaksAndNullsLast(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "a", "vote_average": "7", "vote_count": "10", "popularity": "1"},
		{"id": "2", "title": "b", "vote_average": "7", "vote_count": "10", "popularity": "5"},
		{"id": "3", "title": "c", "vote_average": "7", "vote_count": "50"},
		{"id": "4", "title": "d", "vote_average": "7"},
		{"id": "5", "title": "e"},
	}, nil, nil)

	want := []string{"3", "2", "1", "4", "5"}
	if got := ids(e.Recommend(RecommendParams{Limit: 10})); !reflect.DeepEqual(got, want) {
		t.Errorf("Recommend() = %v, want %v", got, want)
	}
	if got := e.Recommend(RecommendParams{Limit: 2}); len(got) != 2 {
		t.Errorf("len(Recommend(limit=2)) = %d, want 2", len(got))
	}
	if got := e.Recommend(RecommendParams{Limit: 0}); len(got) != 0 {
		t.Errorf("len(Recommend(limit=0)) = %d, want 0", len(got))
	}
}

func TestSearchTitle(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "Star Wars", "vote_count": "100", "vote_average": "8"},
		{"id": "2", "title": "Star Trek", "vote_count": "500", "vote_average": "7"},
		{"id": "3", "title": "Lone Star", "vote_count": "100", "vote_average": "9"},
		{"id": "4", "title": "Alien"},
		{"id": "5", "title": "Stardust"},
	}, nil, nil)

	if got := ids(e.SearchTitle("  STAR ", 10)); !reflect.DeepEqual(got, []string{"2", "3", "1", "5"}) {
		t.Errorf("SearchTitle(star) = %v, want [2 3 1 5]", got)
	}
	if got := e.SearchTitle("star", 2); len(got) != 2 {
		t.Errorf("len(SearchTitle(star, 2)) = %d, want 2", len(got))
	}
	for _, q := range []string{"", "   "} {
		got := e.SearchTitle(q, 10)
		if got == nil || len(got) != 0 {
			t.Errorf("SearchTitle(%q) = %v, want empty list", q, got)
		}
	}
	if got := e.SearchTitle("zzz", 10); len(got) != 0 {
		t.Errorf("SearchTitle(zzz) = %v, want empty", got)
	}
}

func TestGetDetails(t *testing.T) {
	var castNames []string
	for i := 0; i < 20; i++ {
		castNames = append(castNames, "Actor "+strconv.Itoa(i))
	}
	e := newEngine([]row{
		{"id": "10", "title": "The Matrix Reloaded"},
		{"id": "11", "title": "The Matrix"},
		{"id": "12", "title": "the matrix"},
	}, []row{
		{"id": "11", "cast": people(castNames...), "crew": crew("Lana", "Director", "Lilly", "Writer", "Bill", "Producer", "Zach", "Screenplay")},
	}, []row{
		{"id": "11", "keywords": people("Simulation", "Kung Fu")},
	})

	got := e.GetDetails(" the MATRIX ")
	if got == nil {
		t.Fatal("GetDetails() = nil, want exact match")
	}
	if got.ID.String() != "11" {
		t.Errorf("ID = %s, want first exact match 11", got.ID)
	}
	if len(got.Cast) != MaxDetailCast || got.Cast[0] != "Actor 0" || got.Cast[14] != "Actor 14" {
		t.Errorf("Cast = %v, want first 15 in order", got.Cast)
	}
	if want := []string{"Lana (Director)", "Lilly (Writer)", "Zach (Screenplay)"}; !reflect.DeepEqual(got.Crew, want) {
		t.Errorf("Crew = %v, want %v", got.Crew, want)
	}
	if want := []string{"Simulation", "Kung Fu"}; !reflect.DeepEqual(got.Keywords, want) {
		t.Errorf("Keywords = %v, want %v", got.Keywords, want)
	}

	// substring fallback takes the first row in table order, not the best ranked
	fallback := e.GetDetails("matrix")
	if fallback == nil || fallback.ID.String() != "10" {
		t.Errorf("GetDetails(matrix) = %+v, want id 10", fallback)
	}
	if len(fallback.Cast) != 0 || fallback.Crew == nil || fallback.Keywords == nil {
		t.Errorf("movie without credits should have empty lists: %+v", fallback)
	}

	if got := e.GetDetails("Inception"); got != nil {
		t.Errorf("GetDetails(Inception) = %+v, want nil", got)
	}
	if got := e.GetDetails("  "); got != nil {
		t.Errorf("GetDetails(blank) = %+v, want nil", got)
	}
}

func TestTopByActor(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "a", "vote_average": "6"},
		{"id": "2", "title": "b", "vote_average": "8"},
		{"id": "3", "title": "c", "vote_average": "9"},
	}, []row{
		{"id": "1", "cast": people("Keanu Reeves")},
		{"id": "2", "cast": people("Carrie-Anne Moss", "keanu reeves")},
		{"id": "3", "cast": people("Keanu Reevesson")},
	}, nil)

	if got := ids(e.TopByActor(" KEANU REEVES ", 15)); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("TopByActor() = %v, want [2 1]", got)
	}
	if got := e.TopByActor("", 15); len(got) != 0 {
		t.Errorf("TopByActor(blank) = %v, want empty", got)
	}
	if got := e.TopByActor("Nobody", 15); len(got) != 0 {
		t.Errorf("TopByActor(Nobody) = %v, want empty", got)
	}
}

func TestSimilarByKeyword(t *testing.T) {
	e := newEngine([]row{
		{"id": "1", "title": "Reference"},
		{"id": "2", "title": "Two shared"},
		{"id": "3", "title": "One shared"},
		{"id": "4", "title": "Nothing shared"},
		{"id": "5", "title": "Also two"},
		{"id": "6", "title": "Reference"},
	}, nil, []row{
		{"id": "3", "keywords": people("Space")},
		{"id": "1", "keywords": people("space", "Robot", "Future")},
		{"id": "4", "keywords": people("Cooking")},
		{"id": "5", "keywords": people("robot", "future")},
		{"id": "2", "keywords": people("SPACE", "robot")},
		{"id": "7", "keywords": people("space", "robot", "future")},
		{"id": "6", "keywords": people("space", "robot", "future")},
	})

	// ties keep keyword table order; id 7 has no movie row and is skipped
	want := []string{"6", "5", "2", "3"}
	if got := ids(e.SimilarByKeyword("reference", 15)); !reflect.DeepEqual(got, want) {
		t.Errorf("SimilarByKeyword() = %v, want %v", got, want)
	}
	if got := ids(e.SimilarByKeyword("Reference", 2)); !reflect.DeepEqual(got, []string{"6", "5"}) {
		t.Errorf("SimilarByKeyword(limit=2) = %v, want [6 5]", got)
	}

	// exact title only, unlike GetDetails
	if got := e.SimilarByKeyword("Refer", 15); len(got) != 0 {
		t.Errorf("SimilarByKeyword(Refer) = %v, want empty", got)
	}
	if got := e.SimilarByKeyword("Two shared", 15); !reflect.DeepEqual(ids(got), []string{"1", "6", "3", "5"}) {
		t.Errorf("SimilarByKeyword(Two shared) = %v", ids(got))
	}
}

func TestEmptyDatasetDegrades(t *testing.T) {
	e := newEngine(nil, nil, nil)

	if got := e.SearchTitle("a", 10); len(got) != 0 {
		t.Errorf("SearchTitle = %v", got)
	}
	if got := e.GetDetails("a"); got != nil {
		t.Errorf("GetDetails = %v", got)
	}
	if got := e.Recommend(RecommendParams{Limit: 10, IncludeCast: []string{"x"}}); len(got) != 0 {
		t.Errorf("Recommend = %v", got)
	}
	if got := e.TopByActor("a", 10); len(got) != 0 {
		t.Errorf("TopByActor = %v", got)
	}
	if got := e.SimilarByKeyword("a", 10); len(got) != 0 {
		t.Errorf("SimilarByKeyword = %v", got)
	}
}
