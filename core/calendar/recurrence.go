package calendar

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"
)

// occurrenceCap guards against runaway rules (e.g. secondly frequencies).
const occurrenceCap = 1000

// Expand derives the concrete occurrences of the given events within
// [from, to], honoring each event's exceptions. A non-recurring event yields
// exactly one occurrence when it intersects the window. Results are sorted by
// start time.
func Expand(events []Event, from, to time.Time) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, errors.New("expansion window end is before its start")
	}

	occurrences := make([]Occurrence, 0, len(events))
	for i := range events {
		evt := events[i]
		if evt.IsRecurring() {
			occ, err := expandRecurring(evt, from, to)
			if err != nil {
				return nil, errors.Wrapf(err, "expanding event %s", evt.ID)
			}
			occurrences = append(occurrences, occ...)
		} else if overlaps(evt.StartTime, evt.EndTime, from, to) {
			occurrences = append(occurrences, makeOccurrence(evt, evt.StartTime, evt.EndTime))
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].StartTime.Before(occurrences[j].StartTime)
	})
	return occurrences, nil
}

func expandRecurring(evt Event, from, to time.Time) ([]Occurrence, error) {
	rule, err := rrule.StrToRRule(evt.Recurrence)
	if err != nil {
		return nil, errors.Wrap(err, "parsing recurrence rule")
	}
	rule.DTStart(evt.StartTime.UTC())

	duration := evt.Duration()

	// pull starts whose occurrence may still intersect the window
	starts := rule.Between(from.Add(-duration), to, true /* inclusive */)

	occurrences := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		if len(occurrences) >= occurrenceCap {
			break
		}
		if evt.HasException(start) {
			continue
		}
		end := start.Add(duration)
		if !overlaps(start, end, from, to) {
			continue
		}
		occurrences = append(occurrences, makeOccurrence(evt, start, end))
	}
	return occurrences, nil
}

func makeOccurrence(evt Event, start, end time.Time) Occurrence {
	return Occurrence{
		EventID:     evt.ID,
		Title:       evt.Title,
		Description: evt.Description,
		Location:    evt.Location,
		AllDay:      evt.AllDay,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		Recurring:   evt.IsRecurring(),
	}
}

func overlaps(start, end, from, to time.Time) bool {
	return !start.After(to) && !end.Before(from)
}
