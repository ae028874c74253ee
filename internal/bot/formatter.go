package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/user/movie-planner-go/internal/model"
)

// MaxMessageLength is the Telegram limit on message text
const MaxMessageLength = 4096

// PosterBaseURL prefixes a poster_path to make a fetchable image URL
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// EscapeMarkdown escapes special characters for Telegram MarkdownV2 format
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// FormatRecordLine formats one movie as a numbered list entry
func FormatRecordLine(n int, r model.Record) string {
	line := fmt.Sprintf("%d\\. %s", n, headline(r))
	if facts := factLine(r); facts != "" {
		line += "\n   " + facts
	}
	return line
}

func headline(r model.Record) string {
	h := fmt.Sprintf("*%s*", EscapeMarkdown(r.Title))
	if r.ReleaseYear != nil {
		h += fmt.Sprintf(" \\(%d\\)", *r.ReleaseYear)
	}
	return h
}

func factLine(r model.Record) string {
	var facts []string
	if r.VoteAverage != nil {
		facts = append(facts, "⭐ "+EscapeMarkdown(strconv.FormatFloat(*r.VoteAverage, 'f', 1, 64)))
	}
	if r.Runtime != nil && *r.Runtime > 0 {
		facts = append(facts, "⏱ "+formatMinutes(int(*r.Runtime)))
	}
	if len(r.Genres) > 0 {
		facts = append(facts, EscapeMarkdown(strings.Join(r.Genres, ", ")))
	}
	return strings.Join(facts, " · ")
}

// FormatRecordList formats a titled list of movies, or a not-found line when empty
func FormatRecordList(title string, records []model.Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("📭 No movies found for: %s", EscapeMarkdown(title))
	}

	lines := []string{fmt.Sprintf("🎬 *%s*\n", EscapeMarkdown(title))}
	for i, r := range records {
		lines = append(lines, FormatRecordLine(i+1, r))
	}
	return TruncateMessage(strings.Join(lines, "\n"))
}

// FormatDetails formats the detail view of a movie
func FormatDetails(d *model.Details) string {
	if d == nil {
		return ""
	}

	parts := []string{"🎬 " + headline(d.Record)}
	if facts := factLine(d.Record); facts != "" {
		parts = append(parts, facts)
	}
	if d.Overview != "" {
		parts = append(parts, "📝 "+EscapeMarkdown(d.Overview))
	}
	if len(d.Cast) > 0 {
		parts = append(parts, "👥 "+EscapeMarkdown(strings.Join(d.Cast, ", ")))
	}
	if len(d.Crew) > 0 {
		parts = append(parts, "🎥 "+EscapeMarkdown(strings.Join(d.Crew, ", ")))
	}
	if len(d.Keywords) > 0 {
		parts = append(parts, "🏷 "+EscapeMarkdown(strings.Join(d.Keywords, ", ")))
	}
	if d.ImdbID != "" {
		parts = append(parts, "🔗 "+EscapeMarkdown("https://www.imdb.com/title/"+d.ImdbID))
	}
	return TruncateMessage(strings.Join(parts, "\n"))
}

// FormatPlaylist formats a playlist with its total runtime
func FormatPlaylist(p model.Playlist) string {
	if p.Count == 0 {
		return "📭 No movies fit that playlist\\."
	}

	lines := []string{fmt.Sprintf("🍿 *Playlist: %d movies, %s*\n", p.Count, formatMinutes(p.Minutes))}
	for i, r := range p.Items {
		lines = append(lines, FormatRecordLine(i+1, r))
	}
	return TruncateMessage(strings.Join(lines, "\n"))
}

// PosterURL returns the poster image URL of a movie, or "" when it has none
func PosterURL(r model.Record) string {
	if r.PosterPath == "" {
		return ""
	}
	return PosterBaseURL + r.PosterPath
}

// TruncateMessage drops whole trailing lines until text fits in MaxMessageLength
// runes, so a *bold* headline is never split. A single oversized first line is
// cut by runes without splitting an escape sequence.
func TruncateMessage(text string) string {
	if utf8.RuneCountInString(text) <= MaxMessageLength {
		return text
	}

	const ellipsis = "\n\\.\\.\\."
	budget := MaxMessageLength - utf8.RuneCountInString(ellipsis)

	lines := strings.Split(text, "\n")
	used, kept := 0, 0
	for i, line := range lines {
		n := utf8.RuneCountInString(line)
		if i > 0 {
			n++
		}
		if used+n > budget {
			break
		}
		used += n
		kept++
	}
	if kept > 0 {
		return strings.Join(lines[:kept], "\n") + ellipsis
	}
	return cutRunes(text, budget) + ellipsis
}

// cutRunes keeps the first n runes of text, backing off one rune when the cut
// would leave an odd run of trailing backslashes
func cutRunes(text string, n int) string {
	runes := []rune(text)
	backslashes := 0
	for i := n - 1; i >= 0 && runes[i] == '\\'; i-- {
		backslashes++
	}
	if backslashes%2 == 1 {
		n--
	}
	return string(runes[:n])
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
