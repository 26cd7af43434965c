package ledger

import "time"

// Status is the collections-workflow stage of a document.
type Status string

const (
	StatusNotDue         Status = "Por Vencer"
	StatusPreventive     Status = "Gestión Preventiva"
	StatusAdministrative Status = "Gestión Administrativa"
	StatusPreLegal       Status = "Gestión Pre-Legal"
	StatusUndetermined   Status = "Indeterminado"
	StatusError          Status = "Error"
)

// Statuses lists the four aging buckets from least to most overdue.
var Statuses = []Status{StatusNotDue, StatusPreventive, StatusAdministrative, StatusPreLegal}

// Severity orders statuses for "worst status" comparisons. Undetermined
// and error rows rank below every bucket.
func (s Status) Severity() int {
	for i, st := range Statuses {
		if st == s {
			return i + 1
		}
	}
	return 0
}

const (
	preventiveMaxDays     = 8
	administrativeMaxDays = 30
)

// Classify computes days overdue and the aging status of a due date
// relative to today. Only calendar days count.
func Classify(due time.Time, hasDue bool, today time.Time) (int, Status) {
	if !hasDue {
		return 0, StatusUndetermined
	}
	// a corrupt serial or a typo'd century
	if due.Year() < 1900 || due.Year() >= 2200 {
		return 0, StatusError
	}

	days := daysBetween(due, today)

	switch {
	case days < 0:
		return days, StatusNotDue
	case days <= preventiveMaxDays:
		return days, StatusPreventive
	case days <= administrativeMaxDays:
		return days, StatusAdministrative
	default:
		return days, StatusPreLegal
	}
}

// daysBetween returns to - from in whole calendar days.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
