package license

import "time"

// State is the derived entitlement state. It is computed fresh on every
// query and never cached across queries.
type State string

const (
	StateNone         State = "NONE"
	StateTrialActive  State = "TRIAL_ACTIVE"
	StateTrialExpired State = "TRIAL_EXPIRED"
	StateFullActive   State = "FULL_ACTIVE"
)

// Status is the answer to "is this installation entitled to run?".
type Status struct {
	State    State        `json:"state"`
	DaysLeft int          `json:"days_left"`
	Trial    *TrialRecord `json:"trial,omitempty"`
	License  *FullLicense `json:"license,omitempty"`
}

// Entitled reports whether the application may operate.
func (s Status) Entitled() bool {
	return s.State == StateTrialActive || s.State == StateFullActive
}

// daysLeft computes ceil((expires - now) / 24h), floored at zero. The final
// partial day still counts as active; the caller decides expiry by comparing
// now against expires, not by looking at this number.
func daysLeft(now, expires time.Time) int {
	remaining := expires.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
