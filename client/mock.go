package client

import (
	"time"

	"github.com/darasadev/darasa/core/calendar"
)

// mockOccurrences returns static placeholder events so the calendar stays
// usable in development while the API is unreachable.
func mockOccurrences(from, to time.Time) []calendar.Occurrence {
	day := func(offset, hour int) time.Time {
		base := from.UTC().AddDate(0, 0, offset)
		return time.Date(base.Year(), base.Month(), base.Day(), hour, 0, 0, 0, time.UTC)
	}

	all := []calendar.Occurrence{
		{
			EventID:   "mock-1",
			Title:     "Welcome session",
			Location:  "Main hall",
			StartTime: day(1, 9),
			EndTime:   day(1, 10),
		},
		{
			EventID:   "mock-2",
			Title:     "Weekly standup",
			StartTime: day(3, 14),
			EndTime:   day(3, 15),
			Recurring: true,
		},
		{
			EventID:   "mock-3",
			Title:     "Office hours",
			Location:  "Room 12",
			StartTime: day(7, 16),
			EndTime:   day(7, 17),
		},
	}

	occurrences := make([]calendar.Occurrence, 0, len(all))
	for _, occ := range all {
		if occ.StartTime.Before(to) && occ.EndTime.After(from) {
			occurrences = append(occurrences, occ)
		}
	}
	return occurrences
}
