package domain

import (
	"fmt"
	"time"
)

// ConversationTurn is one persisted question/answer exchange. Turns are
// append-only: the pipeline writes each one exactly once and never updates
// or deletes it.
type ConversationTurn struct {
	ID             int64
	EmployeeID     string
	EmployeeName   string
	Question       string
	Answer         string
	Summary        string
	Topic          string
	ConversationID string
	Timestamp      time.Time
}

// TopicCount is the running number of persisted turns classified under a
// topic name.
type TopicCount struct {
	Name  string
	Count int
}

// SynthesizeConversationID derives a conversation id from the employee id
// and a second-granularity timestamp. Two turns from the same employee
// within the same second without an explicit id collide; known limitation
// inherited from the id scheme, not silently fixed.
func SynthesizeConversationID(employeeID string, ts time.Time) string {
	return fmt.Sprintf("%s_%s", employeeID, ts.Format("20060102150405"))
}
