package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys. The queue is bound to each of them on the direct exchange.
const (
	EventSettlementSaved    = "settlement.saved"
	EventLoanPaymentApplied = "loan.payment_applied"
)

// EventTypes lists every routing key the worker queue subscribes to.
var EventTypes = []string{EventSettlementSaved, EventLoanPaymentApplied}

// Event is the envelope published on the exchange. Payload carries one of
// the typed messages below, selected by Type.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// SettlementSaved is lightweight: the worker re-reads the row from the database.
type SettlementSaved struct {
	SettlementID int64 `json:"settlement_id"`
	DriverID     int64 `json:"driver_id"`
	Month        int   `json:"month"`
	Year         int   `json:"year"`
}

type LoanPaymentApplied struct {
	LoanID   int64  `json:"loan_id"`
	DriverID int64  `json:"driver_id"`
	Balance  string `json:"balance"`
	Status   string `json:"status"`
}

// NewEvent wraps payload into an envelope of the given type.
func NewEvent(eventType string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{Type: eventType, Timestamp: time.Now(), Payload: raw}, nil
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON parses an envelope and checks its type is known.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventSettlementSaved, EventLoanPaymentApplied:
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

func (e *Event) SettlementSaved() (SettlementSaved, error) {
	var m SettlementSaved
	if e.Type != EventSettlementSaved {
		return m, fmt.Errorf("event %q is not %s", e.Type, EventSettlementSaved)
	}
	err := json.Unmarshal(e.Payload, &m)
	return m, err
}

func (e *Event) LoanPaymentApplied() (LoanPaymentApplied, error) {
	var m LoanPaymentApplied
	if e.Type != EventLoanPaymentApplied {
		return m, fmt.Errorf("event %q is not %s", e.Type, EventLoanPaymentApplied)
	}
	err := json.Unmarshal(e.Payload, &m)
	return m, err
}
