package navigation

import "github.com/vango-dev/waypoint/pkg/route"

func matched(l *route.Location) []*route.Record {
	if l == nil {
		return nil
	}
	return l.Matched
}

func containsPath(records []*route.Record, path string) bool {
	for _, rec := range records {
		if rec.Path == path {
			return true
		}
	}
	return false
}

// ExtractChangingRecords classifies the records involved in a navigation from
// from to to. A from record is updating when a record with the same path is
// anywhere in to, and leaving otherwise. A to record is entering when no
// record with its path is in from. All three results are root first.
func ExtractChangingRecords(to, from *route.Location) (leaving, updating, entering []*route.Record) {
	toChain, fromChain := matched(to), matched(from)
	n := max(len(toChain), len(fromChain))

	for i := 0; i < n; i++ {
		if i < len(fromChain) {
			rec := fromChain[i]
			if containsPath(toChain, rec.Path) {
				updating = append(updating, rec)
			} else {
				leaving = append(leaving, rec)
			}
		}
		if i < len(toChain) {
			rec := toChain[i]
			if !containsPath(fromChain, rec.Path) {
				entering = append(entering, rec)
			}
		}
	}
	return leaving, updating, entering
}
