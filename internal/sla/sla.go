// Package sla derives the remaining-time label of an item deadline.
package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

const (
	LabelTerminal  = "—"
	LabelNoDueDate = "Prazo N/D"
	LabelToday     = "Hoje"
)

// DefaultWarningDays is the window, in days, in which an open deadline is
// flagged as a warning instead of success.
const DefaultWarningDays = 5

// Derive computes the SLA for an item deadline at now. Both instants are
// reduced to their calendar date before subtracting; now's location decides
// what "today" is.
func Derive(prazo *time.Time, status domain.ItemStatus, now time.Time) domain.SLA {
	return DeriveWithWindow(prazo, status, now, DefaultWarningDays)
}

// DeriveWithWindow is Derive with a configurable warning window.
func DeriveWithWindow(prazo *time.Time, status domain.ItemStatus, now time.Time, warningDays int) domain.SLA {
	if status.IsTerminal() {
		return domain.SLA{Label: LabelTerminal, Severity: domain.SeverityNeutral}
	}
	if prazo == nil || prazo.IsZero() {
		return domain.SLA{Label: LabelNoDueDate, Severity: domain.SeverityNeutral}
	}

	diff := DiffDays(*prazo, now)
	result := domain.SLA{DiffDays: &diff}
	switch {
	case diff < 0:
		result.Label = fmt.Sprintf("%d dias em atraso", -diff)
		result.Severity = domain.SeverityDanger
	case diff == 0:
		result.Label = LabelToday
		result.Severity = domain.SeverityWarning
	case diff <= warningDays:
		result.Label = fmt.Sprintf("em %d dias", diff)
		result.Severity = domain.SeverityWarning
	default:
		result.Label = fmt.Sprintf("em %d dias", diff)
		result.Severity = domain.SeveritySuccess
	}
	return result
}

// DiffDays returns the number of calendar days from now to prazo. The
// deadline is a date, so its own year/month/day are used as stored; now is
// read in its own location.
func DiffDays(prazo, now time.Time) int {
	py, pm, pd := prazo.Date()
	ny, nm, nd := now.Date()
	p := time.Date(py, pm, pd, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(p.Sub(n).Hours() / 24)
}

// MoreUrgent reports whether a should be shown before b. Items without a
// deadline sort last.
func MoreUrgent(a, b domain.SLA) bool {
	if a.DiffDays == nil {
		return false
	}
	if b.DiffDays == nil {
		return true
	}
	return *a.DiffDays < *b.DiffDays
}
