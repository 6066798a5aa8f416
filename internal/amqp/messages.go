package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// EventLedgerSaved is published after every successful ledger overwrite.
const EventLedgerSaved = "ledger.saved"

// LedgerSavedMessage tells consumers the stored ledger changed. It carries
// the new size and totals, not the rows; consumers reload what they need.
type LedgerSavedMessage struct {
	Event     string    `json:"event"`
	Rows      int       `json:"rows"`
	Income    float64   `json:"income"`
	Expense   float64   `json:"expense"`
	Balance   float64   `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSavedMessage(rows int, totals core.Totals) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		Event:     EventLedgerSaved,
		Rows:      rows,
		Income:    totals.Income,
		Expense:   totals.Expense,
		Balance:   totals.Balance,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
