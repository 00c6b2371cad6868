package schedule

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode"

	"vet-clinic-scheduler/internal/domain/slot"
	"vet-clinic-scheduler/internal/pkg/errs"
)

var (
	ErrMalformedShift = errors.New("malformed shift")
	ErrUnknownWeekday = errors.New("unknown weekday")
	ErrUnknownVet     = errors.New("unknown veterinarian")
	ErrInvalidRoster  = errors.New("invalid roster")
)

type shift struct {
	start time.Duration
	end   time.Duration
}

type dayPlan struct {
	raw    []string
	shifts []shift
	notice string
}

func (d dayPlan) closed() bool {
	return len(d.shifts) == 0
}

// Template is the parsed weekly schedule. It is immutable once built and safe to share.
type Template struct {
	weekdays []time.Weekday
	days     map[time.Weekday]dayPlan
	roster   []Vet
	byKey    map[string]Vet
	byName   map[string]Vet
	workdays map[string]map[time.Weekday]bool
}

// NewTemplate parses def. Any malformed entry is a configuration error.
func NewTemplate(def Definition) (*Template, error) {
	t := &Template{
		days:     make(map[time.Weekday]dayPlan, len(def.Weekdays)),
		byKey:    make(map[string]Vet, len(def.Veterinarians)),
		byName:   make(map[string]Vet, len(def.Veterinarians)),
		workdays: make(map[string]map[time.Weekday]bool, len(def.Assignments)),
	}

	for _, name := range def.Weekdays {
		wd, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if slices.Contains(t.weekdays, wd) {
			return nil, errs.Newf("weekday %s listed twice", wd)
		}
		t.weekdays = append(t.weekdays, wd)
	}

	for name, entries := range def.Shifts {
		wd, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(t.weekdays, wd) {
			return nil, errs.Newf("shifts given for %s which is not a clinic weekday", wd)
		}
		plan, err := parseDay(entries)
		if err != nil {
			return nil, errs.Wrapf(err, "shifts for %s", wd)
		}
		t.days[wd] = plan
	}

	for _, v := range def.Veterinarians {
		if strings.TrimSpace(v.Key) == "" || strings.TrimSpace(v.Name) == "" {
			return nil, errs.Mark(errs.Newf("roster entry %+v needs a key and a name", v), ErrInvalidRoster)
		}
		if _, dup := t.byKey[v.Key]; dup {
			return nil, errs.Mark(errs.Newf("roster key %q used twice", v.Key), ErrInvalidRoster)
		}
		if _, dup := t.byName[v.Name]; dup {
			return nil, errs.Mark(errs.Newf("roster name %q used twice", v.Name), ErrInvalidRoster)
		}
		t.byKey[v.Key] = v
		t.byName[v.Name] = v
		t.roster = append(t.roster, v)
	}

	for vetName, days := range def.Assignments {
		if _, ok := t.byName[vetName]; !ok {
			return nil, errs.Mark(errs.Newf("assignment for %q who is not on the roster", vetName), ErrUnknownVet)
		}
		set := make(map[time.Weekday]bool, len(days))
		for _, name := range days {
			wd, err := ParseWeekday(name)
			if err != nil {
				return nil, errs.Wrapf(err, "assignment for %s", vetName)
			}
			set[wd] = true
		}
		t.workdays[vetName] = set
	}

	return t, nil
}

func parseDay(entries []string) (dayPlan, error) {
	plan := dayPlan{raw: slices.Clone(entries)}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return dayPlan{}, errs.Mark(errs.New("empty shift entry"), ErrMalformedShift)
		}
		if !unicode.IsDigit(rune(entry[0])) {
			if plan.notice != "" {
				return dayPlan{}, errs.Mark(errs.New("more than one closure notice"), ErrMalformedShift)
			}
			plan.notice = entry
			continue
		}
		s, err := parseShift(entry)
		if err != nil {
			return dayPlan{}, err
		}
		plan.shifts = append(plan.shifts, s)
	}
	if plan.notice != "" && len(plan.shifts) > 0 {
		return dayPlan{}, errs.Mark(errs.New("a closed day cannot also list shifts"), ErrMalformedShift)
	}
	return plan, nil
}

func parseShift(entry string) (shift, error) {
	startStr, endStr, isRange := strings.Cut(entry, "-")
	start, err := parseClock(startStr)
	if err != nil {
		return shift{}, errs.Mark(errs.Wrapf(err, "shift %q", entry), ErrMalformedShift)
	}
	if !isRange {
		return shift{start: start, end: start + slot.Duration}, nil
	}
	end, err := parseClock(endStr)
	if err != nil {
		return shift{}, errs.Mark(errs.Wrapf(err, "shift %q", entry), ErrMalformedShift)
	}
	if end <= start {
		return shift{}, errs.Mark(errs.Newf("shift %q ends before it starts", entry), ErrMalformedShift)
	}
	return shift{start: start, end: end}, nil
}

// parseClock turns "HH:MM" into an offset from midnight. "24:00" is accepted as an end.
func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParseWeekday accepts an English weekday name in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	name = strings.TrimSpace(name)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			return wd, nil
		}
	}
	return 0, errs.Mark(errs.Newf("%q is not a weekday", name), ErrUnknownWeekday)
}

func (t *Template) Weekdays() []time.Weekday {
	return slices.Clone(t.weekdays)
}

// Roster returns the vets in their configured order.
func (t *Template) Roster() []Vet {
	return slices.Clone(t.roster)
}

// LookupVet resolves a roster letter or a display name.
func (t *Template) LookupVet(keyOrName string) (Vet, error) {
	if v, ok := t.byKey[keyOrName]; ok {
		return v, nil
	}
	if v, ok := t.byName[keyOrName]; ok {
		return v, nil
	}
	return Vet{}, errs.Mark(errs.Newf("%q is not one of our veterinarians", keyOrName), ErrUnknownVet)
}

func (t *Template) IsKnownVet(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Workdays lists the weekdays vetName works, in clinic weekday order.
func (t *Template) Workdays(vetName string) []time.Weekday {
	var out []time.Weekday
	for _, wd := range t.weekdays {
		if t.workdays[vetName][wd] {
			out = append(out, wd)
		}
	}
	return out
}

func (t *Template) WorksOn(vetName string, wd time.Weekday) bool {
	return t.workdays[vetName][wd]
}

// HasSchedule reports whether the vet works on at least one open weekday.
func (t *Template) HasSchedule(vetName string) bool {
	for wd := range t.workdays[vetName] {
		if plan, ok := t.days[wd]; ok && !plan.closed() {
			return true
		}
	}
	return false
}

// DayShifts describes a weekday as configured. Closed days carry the notice instead of shifts.
type DayShifts struct {
	Weekday time.Weekday
	Shifts  []string
	Closed  bool
	Notice  string
}

func (t *Template) Shifts(wd time.Weekday) DayShifts {
	plan, ok := t.days[wd]
	if !ok || plan.closed() {
		return DayShifts{Weekday: wd, Closed: true, Notice: plan.notice}
	}
	return DayShifts{Weekday: wd, Shifts: slices.Clone(plan.raw)}
}
