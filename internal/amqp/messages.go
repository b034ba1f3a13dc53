package amqp

import (
	"encoding/json"
	"time"

	"cashcraft/internal/core"
)

// ExpenseRecordedMessage announces a committed expense row. It carries the
// full row so consumers need not read the store; rows never change after
// insert, so the payload cannot go stale.
type ExpenseRecordedMessage struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseRecordedMessage builds the message for a stored expense.
func NewExpenseRecordedMessage(e core.Expense) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    e.Category,
		AmountCents: e.Amount.Cents,
		Description: e.Description,
		Timestamp:   time.Now(),
	}
}

// Expense converts the message back into the domain type.
func (m *ExpenseRecordedMessage) Expense() (core.Expense, error) {
	d, err := core.ParseDate(m.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          m.ID,
		Date:        d,
		Category:    m.Category,
		Amount:      core.Money{Cents: m.AmountCents},
		Description: m.Description,
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRecordedMessageFromJSON creates a message from JSON bytes
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
