package model

import (
	"time"
)

// ExchangeOutcome is the terminal state of one exchange.
type ExchangeOutcome string

const (
	OutcomeCompleted ExchangeOutcome = "completed"
	OutcomeFailed    ExchangeOutcome = "failed"
	OutcomeTimeout   ExchangeOutcome = "timeout"
)

// ExchangeEvent records the outcome of one exchange for the audit stream.
type ExchangeEvent struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	TurnToken      string          `json:"turn_token"`
	Outcome        ExchangeOutcome `json:"outcome"`
	Model          string          `json:"model"`
	Detail         string          `json:"detail,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
