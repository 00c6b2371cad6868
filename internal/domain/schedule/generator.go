package schedule

import (
	"slices"
	"time"

	"vet-clinic-scheduler/internal/domain/slot"
)

// Day is the expansion of one calendar date. A closed day has no starts and may carry the
// notice configured for it.
type Day struct {
	Date    time.Time
	Weekday time.Weekday
	Starts  []time.Time
	Closed  bool
	Notice  string
}

// ExpandDay subdivides the shifts of date's weekday into hourly start times, each range from
// its start (inclusive) to its end (exclusive). Starts are returned sorted and deduplicated.
func (t *Template) ExpandDay(date time.Time) Day {
	y, m, d := date.Date()
	loc := date.Location()
	day := Day{
		Date:    time.Date(y, m, d, 0, 0, 0, 0, loc),
		Weekday: date.Weekday(),
	}

	plan, ok := t.days[day.Weekday]
	if !ok || plan.closed() {
		day.Closed = true
		day.Notice = plan.notice
		return day
	}

	for _, s := range plan.shifts {
		for off := s.start; off < s.end; off += slot.Duration {
			// time.Date normalises minute overflow, which keeps wall-clock hours across DST.
			day.Starts = append(day.Starts, time.Date(y, m, d, 0, int(off/time.Minute), 0, 0, loc))
		}
	}
	slices.SortFunc(day.Starts, time.Time.Compare)
	day.Starts = slices.CompactFunc(day.Starts, time.Time.Equal)
	return day
}

// ExpandForAllVets produces one slot per start time for every vet working on date's weekday.
func (t *Template) ExpandForAllVets(date time.Time) slot.Set {
	day := t.ExpandDay(date)
	out := slot.NewSet()
	if day.Closed {
		return out
	}
	for _, v := range t.roster {
		if !t.WorksOn(v.Name, day.Weekday) {
			continue
		}
		for _, start := range day.Starts {
			_ = out.Add(slot.New(start, v.Name))
		}
	}
	return out
}

// ExpandForVet is ExpandForAllVets narrowed to a single vet.
func (t *Template) ExpandForVet(vetName string, date time.Time) slot.Set {
	return t.ExpandForAllVets(date).ByVet(vetName)
}

// Offers reports whether at is one of the generated start times of its day.
func (t *Template) Offers(at time.Time) bool {
	day := t.ExpandDay(at)
	return slices.ContainsFunc(day.Starts, at.Equal)
}
