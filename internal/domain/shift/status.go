package shift

// Status is the closed set of shift lifecycle states.
type Status string

const (
	StatusPresent   Status = "PRESENT"
	StatusOnBreak   Status = "ON_BREAK"
	StatusCompleted Status = "COMPLETED"
)

// transitions is the only place a status change is allowed to be
// defined. COMPLETED is terminal.
var transitions = map[Status][]Status{
	StatusPresent:   {StatusOnBreak, StatusCompleted},
	StatusOnBreak:   {StatusPresent},
	StatusCompleted: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to target is legal.
func (s Status) CanTransition(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
