package agent

import (
	"fmt"
	"time"
)

// Status is the final outcome of a session.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Summary is the observational record returned when a session terminates.
type Summary struct {
	SessionID          string        `json:"sessionId"`
	Status             Status        `json:"status"`
	StartTime          time.Time     `json:"startTime"`
	EndTime            time.Time     `json:"endTime"`
	Duration           time.Duration `json:"duration"`
	UserTurns          int           `json:"userTurnCount"`
	TotalTurns         int           `json:"totalTurnCount"`
	ToolInvocations    int           `json:"toolInvocations"`
	CompletionRequests int           `json:"completionRequests"`
}

// Clock renders the duration as mm:ss. Minutes keep counting past an hour.
func (s Summary) Clock() string {
	secs := int(s.Duration.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
