package bot

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/user/movie-planner-go/internal/server"
)

// ParseOptions splits command arguments into key=value options and bare flags.
// A word without "=" following an option continues that option's value, so
// "cast=Tom Hanks" keeps the space. Words listed in flagWords are always flags,
// wherever they appear. Keys are lower-cased.
func ParseOptions(args string, flagWords ...string) (map[string]string, []string) {
	options := make(map[string]string)
	var flags []string
	last := ""

	for _, word := range strings.Fields(args) {
		if key, value, ok := strings.Cut(word, "="); ok && key != "" {
			last = strings.ToLower(key)
			options[last] = value
			continue
		}
		if slices.Contains(flagWords, strings.ToLower(word)) {
			flags = append(flags, strings.ToLower(word))
			continue
		}
		if last != "" {
			options[last] = strings.TrimSpace(options[last] + " " + word)
			continue
		}
		flags = append(flags, strings.ToLower(word))
	}
	return options, flags
}

// splitList splits a comma separated option value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseRecommendArgs builds recommend params from
// "genre=Drama,Crime min_vote=7 from=1990 to=2000 lang=en cast=Al Pacino"
func ParseRecommendArgs(args string, limit int) (server.RecommendParams, error) {
	p := server.RecommendParams{Limit: limit}
	options, flags := ParseOptions(args)
	if len(flags) > 0 {
		return p, fmt.Errorf("unexpected argument %q, use key=value", flags[0])
	}

	for key, value := range options {
		switch key {
		case "genre", "genres":
			p.Genres = splitList(value)
		case "min_vote", "vote":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return p, fmt.Errorf("%s must be a number", key)
			}
			p.MinVote = v
		case "from", "from_year":
			y, err := strconv.Atoi(value)
			if err != nil {
				return p, fmt.Errorf("%s must be a year", key)
			}
			p.FromYear = &y
		case "to", "to_year":
			y, err := strconv.Atoi(value)
			if err != nil {
				return p, fmt.Errorf("%s must be a year", key)
			}
			p.ToYear = &y
		case "lang", "language":
			p.Language = value
		case "cast":
			p.IncludeCast = splitList(value)
		default:
			return p, fmt.Errorf("unknown option %q", key)
		}
	}
	return p, nil
}

// playlistFlags pick the playlist ordering
var playlistFlags = []string{"popular", "rated", "top"}

// ParsePlaylistArgs builds playlist params from
// "minutes=300 genre=Comedy lang=en popular"
func ParsePlaylistArgs(args string) (server.PlaylistParams, error) {
	p := server.PlaylistParams{TargetMinutes: 480, PreferHighRating: true}
	options, flags := ParseOptions(args, playlistFlags...)

	for _, flag := range flags {
		switch flag {
		case "popular":
			p.PreferHighRating = false
		case "rated", "top":
			p.PreferHighRating = true
		default:
			if m, err := strconv.Atoi(flag); err == nil {
				p.TargetMinutes = m
				continue
			}
			return p, fmt.Errorf("unexpected argument %q", flag)
		}
	}

	for key, value := range options {
		switch key {
		case "minutes", "target", "target_minutes":
			m, err := strconv.Atoi(value)
			if err != nil {
				return p, fmt.Errorf("%s must be a whole number of minutes", key)
			}
			p.TargetMinutes = m
		case "genre", "genres":
			p.Genres = splitList(value)
		case "lang", "language":
			p.Language = value
		default:
			return p, fmt.Errorf("unknown option %q", key)
		}
	}
	return p, nil
}
