package model

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseMovieID(t *testing.T) {
	tests := []struct {
		raw         string
		wantNumeric bool
		wantJSON    string
	}{
		{raw: "862", wantNumeric: true, wantJSON: "862"},
		{raw: "0", wantNumeric: true, wantJSON: "0"},
		{raw: "1997-08-20", wantNumeric: false, wantJSON: `"1997-08-20"`},
		{raw: " 12", wantNumeric: false, wantJSON: `" 12"`},
		{raw: "12.0", wantNumeric: false, wantJSON: `"12.0"`},
		{raw: "", wantNumeric: false, wantJSON: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id := ParseMovieID(tt.raw)
			if id.Numeric != tt.wantNumeric {
				t.Errorf("ParseMovieID(%q).Numeric = %v, want %v", tt.raw, id.Numeric, tt.wantNumeric)
			}
			data, err := json.Marshal(id)
			if err != nil {
				t.Fatalf("Marshal error = %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("Marshal(%q) = %s, want %s", tt.raw, data, tt.wantJSON)
			}
		})
	}
}

func TestMovieID_UnmarshalJSON(t *testing.T) {
	var got []MovieID
	if err := json.Unmarshal([]byte(`[5, "tt-1", null]`), &got); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !got[0].Numeric || got[0].Num != 5 {
		t.Errorf("got[0] = %+v, want numeric 5", got[0])
	}
	if got[1].Numeric || got[1].Raw != "tt-1" {
		t.Errorf("got[1] = %+v, want raw tt-1", got[1])
	}
	if got[2] != (MovieID{}) {
		t.Errorf("got[2] = %+v, want zero id", got[2])
	}
}

func TestGenreField_Names(t *testing.T) {
	structured := StructuredGenres([]Entry{{ID: "18", Name: "Drama"}, {Name: ""}, {ID: "35", Name: " Comedy "}})
	if got := structured.Names(); !reflect.DeepEqual(got, []string{"Drama", "Comedy"}) {
		t.Errorf("structured Names() = %v", got)
	}

	raw := RawGenres("Drama| Comedy ||")
	if got := raw.Names(); !reflect.DeepEqual(got, []string{"Drama", "Comedy"}) {
		t.Errorf("raw Names() = %v", got)
	}

	if got := (GenreField{}).Names(); len(got) != 0 {
		t.Errorf("empty Names() = %v, want empty", got)
	}
}

func TestProject_NullsPassThrough(t *testing.T) {
	rec := Project(&Movie{RawID: "abc", Title: "Untitled"})

	if rec.ID.Numeric || rec.ID.Raw != "abc" {
		t.Errorf("ID = %+v, want raw abc", rec.ID)
	}
	if rec.ReleaseYear != nil || rec.Runtime != nil || rec.VoteAverage != nil || rec.VoteCount != nil || rec.Popularity != nil {
		t.Errorf("nullable fields should stay nil, got %+v", rec)
	}
	if rec.Genres == nil {
		t.Error("Genres should be an empty list, not nil")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	for _, key := range []string{"runtime", "vote_average", "vote_count", "popularity", "release_year"} {
		if v, ok := decoded[key]; !ok || v != nil {
			t.Errorf("%s = %v, want null", key, v)
		}
	}
}

func TestProject_DoesNotAliasSource(t *testing.T) {
	runtime := 90.0
	m := &Movie{RawID: "1", Runtime: &runtime}

	rec := Project(m)
	*rec.Runtime = 1

	if *m.Runtime != 90 {
		t.Errorf("source runtime changed to %v", *m.Runtime)
	}
}

// genMovie builds movies with a mix of present and absent numeric fields
func genMovie() gopter.Gen {
	return gopter.CombineGens(
		gen.OneGenOf(gen.RegexMatch(`[0-9]{1,6}`), gen.AlphaString()),
		gen.AlphaString(),
		gen.Float64Range(0, 10),
		gen.Bool(),
		gen.SliceOf(gen.AlphaString()),
	).Map(func(vals []interface{}) *Movie {
		vote := vals[2].(float64)
		m := &Movie{
			RawID: vals[0].(string),
			Title: vals[1].(string),
		}
		if vals[3].(bool) {
			m.VoteAverage = &vote
		}
		var entries []Entry
		for _, name := range vals[4].([]string) {
			entries = append(entries, Entry{Name: name})
		}
		m.Genres = StructuredGenres(entries)
		return m
	})
}

// Feature: movie-planner, projection is a pure function
func TestProperty_ProjectionIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("projecting twice yields identical output", prop.ForAll(
		func(m *Movie) bool {
			first, err := json.Marshal(Project(m))
			if err != nil {
				return false
			}
			second, err := json.Marshal(Project(m))
			if err != nil {
				return false
			}
			return string(first) == string(second) && reflect.DeepEqual(Project(m), Project(m))
		},
		genMovie(),
	))

	properties.Property("digit ids project to numbers", prop.ForAll(
		func(raw string) bool {
			return ParseMovieID(raw).Numeric
		},
		gen.RegexMatch(`[1-9][0-9]{0,8}`),
	))

	properties.TestingRun(t)
}
