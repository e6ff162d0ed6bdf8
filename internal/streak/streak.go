// Package streak computes consecutive-day engagement counts over
// progress log timestamps.
package streak

import (
	"sort"
	"time"

	"github.com/habitforge/habitforge/internal/domain"
)

// Compute returns the current consecutive-day streak for one owner's logs,
// evaluated at now in loc. Multiple logs on one calendar date count once.
// A log from yesterday with none today still keeps the streak alive (one-day
// grace); a gap of two or more days truncates it at the first such gap.
func Compute(logs []domain.ProgressLog, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}

	seen := make(map[time.Time]struct{}, len(logs))
	for _, l := range logs {
		seen[dateOf(l.CreatedAt, loc)] = struct{}{}
	}
	if len(seen) == 0 {
		return 0
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	today := dateOf(now, loc)
	yesterday := today.AddDate(0, 0, -1)

	// Streak is broken unless the most recent activity is today or yesterday.
	if !dates[0].Equal(today) && !dates[0].Equal(yesterday) {
		return 0
	}

	streak := 1
	for i := 1; i < len(dates); i++ {
		// Exactly one calendar day apart, DST-safe.
		if !dates[i].AddDate(0, 0, 1).Equal(dates[i-1]) {
			break
		}
		streak++
	}

	return streak
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
