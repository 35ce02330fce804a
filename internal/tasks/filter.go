package tasks

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// FilterRules decides which personal-playlist tracks do not belong.
type FilterRules struct {
	AllowGenres    []string
	DenyGenres     []string
	ToleratedUsers []string
}

// RulesFromConfig builds rules from the filter configuration.
func RulesFromConfig(cfg shared.FilterConfig) FilterRules {
	return FilterRules{AllowGenres: cfg.AllowGenres, DenyGenres: cfg.DenyGenres, ToleratedUsers: cfg.ToleratedUsers}
}

// Verdict is the result of [FilterRules.Evaluate].
type Verdict struct {
	Remove  bool
	Reason  models.RemovalReason
	Allowed []string // track genres matching the allow-list
	Denied  []string // track genres matching the deny-list
}

// Evaluate checks the adder first and the genres second.
//
// A track added by an account outside ToleratedUsers (or by nobody) is removed without looking
// at genres. Otherwise a genre matching the allow-list keeps the track, and failing that a genre
// matching the deny-list removes it. Matching is case-insensitive substring containment in either
// direction. The track must have been enriched with genres.
func (r FilterRules) Evaluate(track models.Track) (Verdict, error) {
	if track.AddedBy == nil || !slices.Contains(r.ToleratedUsers, *track.AddedBy) {
		return Verdict{Remove: true, Reason: models.ReasonUntoleratedUser}, nil
	}

	if !track.GenresLoaded {
		return Verdict{}, fmt.Errorf("%w: %s", shared.ErrGenresNotLoaded, track.String())
	}

	var v Verdict
	for _, genre := range track.Genres {
		if genreMatches(genre, r.AllowGenres) {
			v.Allowed = append(v.Allowed, genre)
		}
		if genreMatches(genre, r.DenyGenres) {
			v.Denied = append(v.Denied, genre)
		}
	}

	if len(v.Allowed) == 0 && len(v.Denied) > 0 {
		v.Remove = true
		v.Reason = models.ReasonDeniedGenre
	}
	return v, nil
}

func genreMatches(genre string, list []string) bool {
	g := strings.ToLower(strings.TrimSpace(genre))
	if g == "" {
		return false
	}

	for _, entry := range list {
		e := strings.ToLower(strings.TrimSpace(entry))
		if e == "" {
			continue
		}
		if strings.Contains(g, e) || strings.Contains(e, g) {
			return true
		}
	}
	return false
}
