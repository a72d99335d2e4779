package text

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// CharacterDifferences computes how many characters were added and removed
// going from before to after.
func CharacterDifferences(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += len(d.Text)
		}
	}
	return added, removed
}

// ModificationPercentage reports how much of an accepted suggestion has
// been edited away, as the Levenshtein distance between the accepted text
// and the current text over the accepted length, clamped to [0, 1]. An
// empty accepted text yields 0.
func ModificationPercentage(accepted, current string) float64 {
	if accepted == "" {
		return 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(accepted, current, true)
	distance := dmp.DiffLevenshtein(diffs)
	pct := float64(distance) / float64(len(accepted))
	if pct > 1 {
		return 1
	}
	return pct
}
