package model

// Status is a student's attendance state.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
)

// DefaultStatus is written when a student is admitted.
const DefaultStatus = StatusAbsent

// Valid reports whether s is one of the three enumerated states.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Effective is the read-time interpretation: anything other than Absent or Late,
// including an empty value, counts as Present.
func (s Status) Effective() Status {
	switch s {
	case StatusAbsent, StatusLate:
		return s
	}
	return StatusPresent
}

// Next advances the attendance cycle Present -> Absent -> Late -> Present.
func (s Status) Next() Status {
	switch s.Effective() {
	case StatusPresent:
		return StatusAbsent
	case StatusAbsent:
		return StatusLate
	default:
		return StatusPresent
	}
}
