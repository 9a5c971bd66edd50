package amqp

import (
	"encoding/json"
	"time"
)

const (
	ExpenseCreated = "expense_created"
	ExpenseUpdated = "expense_updated"
	ExpenseDeleted = "expense_deleted"
)

// LedgerEvent is the lightweight change notification published for each
// expense mutation. Consumers fetch the full record from the store.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	ExpenseID int64     `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind string, expenseID int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
