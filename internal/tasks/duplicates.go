package tasks

import (
	"fmt"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// DuplicateDetector counts occurrences of a track across personal playlists.
type DuplicateDetector struct {
	tolerated map[string]struct{} // track names whose missing id is expected
}

// NewDuplicateDetector creates a detector that tolerates a missing id on tracks with the given names.
func NewDuplicateDetector(toleratedMissing []string) *DuplicateDetector {
	tolerated := make(map[string]struct{}, len(toleratedMissing))
	for _, name := range toleratedMissing {
		tolerated[name] = struct{}{}
	}
	return &DuplicateDetector{tolerated: tolerated}
}

// Count returns how many entries of index share track's id.
//
// Every playlist counts, including one the track itself lives in. An index entry with an empty
// id aborts with [shared.ErrDataIntegrity] unless its name is tolerated. A track with an empty id
// never matches anything.
func (d *DuplicateDetector) Count(track models.Track, index models.PersonalIndex) (int, error) {
	count := 0

	for _, name := range index.Names() {
		for _, song := range index[name] {
			if song.ID == "" {
				if _, ok := d.tolerated[song.Name]; ok {
					continue
				}
				return 0, fmt.Errorf("%w: track %q without id in playlist %q", shared.ErrDataIntegrity, song.Name, name)
			}

			if track.ID != "" && song.ID == track.ID {
				count++
			}
		}
	}

	return count, nil
}
