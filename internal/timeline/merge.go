package timeline

import "sort"

type rankedItem struct {
	item  Feedback
	order int
}

// Merge builds the single suggestions feed from both streams. Each item is
// tagged with the stream it came from and the feed is ordered by start time.
// On equal start times pitch precedes stutter, then input order decides.
// Items without a finite start time follow every timed item under the same
// rules. The inputs are not modified.
func Merge(pitch, stutter []Feedback) []Feedback {
	ranked := make([]rankedItem, 0, len(pitch)+len(stutter))
	for _, f := range pitch {
		f.Kind = KindPitch
		ranked = append(ranked, rankedItem{item: f, order: len(ranked)})
	}
	for _, f := range stutter {
		f.Kind = KindStutter
		ranked = append(ranked, rankedItem{item: f, order: len(ranked)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		at, bt := isFinite(a.item.StartTime), isFinite(b.item.StartTime)
		if at != bt {
			return at
		}
		if at && a.item.StartTime != b.item.StartTime {
			return a.item.StartTime < b.item.StartTime
		}
		if a.item.Kind != b.item.Kind {
			return a.item.Kind == KindPitch
		}
		return a.order < b.order
	})

	feed := make([]Feedback, len(ranked))
	for i, r := range ranked {
		feed[i] = r.item
	}
	return feed
}

// Counts tallies the feed per kind.
func Counts(feed []Feedback) (pitch, stutter int) {
	for _, f := range feed {
		if f.Kind == KindStutter {
			stutter++
		} else {
			pitch++
		}
	}
	return pitch, stutter
}
