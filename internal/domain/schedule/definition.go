package schedule

// Vet is a roster entry. Key is the short letter used to pick a vet, Name is the identity
// carried by slots.
type Vet struct {
	Key  string
	Name string
}

// Definition is the raw, compiled-in form of the weekly template. NewTemplate parses it once.
//
// A shift entry is either a range "HH:MM-HH:MM" (end exclusive, subdivided into hourly starts)
// or a single start "HH:MM". An entry that does not start with a digit is a closure notice: the
// weekday is closed and the text is shown to customers instead of a schedule.
type Definition struct {
	Weekdays      []string
	Shifts        map[string][]string
	Veterinarians []Vet
	Assignments   map[string][]string
}

const sundayNotice = "No working hours. For emergencies, please reach the on-call vet the main line listed on the website."

func DefaultDefinition() Definition {
	weekday := []string{"09:00-13:00", "14:00-17:00"}
	return Definition{
		Weekdays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
		Shifts: map[string][]string{
			"Monday":    weekday,
			"Tuesday":   weekday,
			"Wednesday": weekday,
			"Thursday":  weekday,
			"Friday":    weekday,
			"Saturday":  {"10:00-13:00"},
			"Sunday":    {sundayNotice},
		},
		Veterinarians: []Vet{
			{Key: "a", Name: "Dr. Arron"},
			{Key: "b", Name: "Dr. Beth"},
			{Key: "c", Name: "Dr. Kalyen"},
			{Key: "d", Name: "Dr. Neelini"},
			{Key: "e", Name: "Dr. Mihael"},
		},
		Assignments: map[string][]string{
			"Dr. Arron":   {"Monday", "Wednesday", "Friday"},
			"Dr. Beth":    {"Tuesday", "Thursday", "Saturday"},
			"Dr. Kalyen":  {"Monday", "Tuesday", "Wednesday", "Thursday"},
			"Dr. Neelini": {"Friday", "Saturday"},
			"Dr. Mihael":  {"Wednesday", "Saturday"},
		},
	}
}
