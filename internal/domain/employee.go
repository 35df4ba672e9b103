package domain

import (
	"fmt"
	"time"
)

// EmployeeContext is the read-only session data the auth layer resolves for
// the current employee. The pipeline consumes it for personalization only.
type EmployeeContext struct {
	EmployeeID string
	Name       string
	Department string
	HireDate   string // YYYY-MM-DD
}

// Tenure renders the employee's time since hire as "X years, Y months".
// An unparseable hire date renders "Unknown" rather than failing the turn.
func (e EmployeeContext) Tenure(now time.Time) string {
	hired, err := time.Parse("2006-01-02", e.HireDate)
	if err != nil {
		return "Unknown"
	}
	years := now.Year() - hired.Year()
	if int(now.Month()) < int(hired.Month()) ||
		(now.Month() == hired.Month() && now.Day() < hired.Day()) {
		years--
	}
	months := (int(now.Month()) - int(hired.Month()) + 12) % 12

	switch {
	case years <= 0 && months <= 0:
		return "0 months"
	case years <= 0:
		return fmt.Sprintf("%d months", months)
	case months == 0:
		return fmt.Sprintf("%d years", years)
	default:
		return fmt.Sprintf("%d years, %d months", years, months)
	}
}
