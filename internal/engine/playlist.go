package engine

import (
	"github.com/user/movie-planner-go/internal/model"
)

// PlaylistFillRatio is the share of the target at which packing stops early
const PlaylistFillRatio = 0.95

// PlaylistParams describe a playlist request
type PlaylistParams struct {
	TargetMinutes    int
	PreferHighRating bool
	Genres           []string
	Language         string
}

// BuildPlaylist greedily packs movies into TargetMinutes. Candidates are scanned
// best first; a movie that does not fit is skipped and the scan goes on, so shorter
// movies later in the order can still fill the gap. Packing stops once the total
// reaches PlaylistFillRatio of the target. Items keep acceptance order.
func (e *Engine) BuildPlaylist(p PlaylistParams) model.Playlist {
	candidates := filterGenreLanguage(e.Index(), p.Genres, p.Language)
	sortForPlaylist(candidates, p.PreferHighRating)

	accepted, total := packRuntime(candidates, float64(p.TargetMinutes))
	return model.Playlist{
		Minutes: int(total),
		Count:   len(accepted),
		Items:   model.ProjectAll(accepted),
	}
}

// packRuntime is the greedy scan behind BuildPlaylist
func packRuntime(candidates []*model.Movie, target float64) ([]*model.Movie, float64) {
	var (
		accepted []*model.Movie
		total    float64
	)
	for _, m := range candidates {
		if m.Runtime == nil || *m.Runtime <= 0 {
			continue
		}
		runtime := *m.Runtime
		if total+runtime > target {
			continue
		}
		accepted = append(accepted, m)
		total += runtime
		if total >= target*PlaylistFillRatio {
			break
		}
	}
	return accepted, total
}
