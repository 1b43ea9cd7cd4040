package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity names the kind of record a change touched.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityNote        Entity = "note"
	EntityStore       Entity = "store"
)

// Action names what happened to the record.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionRestored Action = "restored"
)

// LedgerChangedMessage announces that the ledger moved to a new snapshot.
// It carries no record data; consumers reload from the store.
type LedgerChangedMessage struct {
	MessageID string    `json:"message_id"`
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	RecordID  int64     `json:"record_id,omitempty"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(entity Entity, action Action, recordID int64, version uint64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		MessageID: uuid.NewString(),
		Entity:    entity,
		Action:    action,
		RecordID:  recordID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Entity == "" || msg.Action == "" {
		return nil, fmt.Errorf("ledger change message missing entity or action")
	}
	return &msg, nil
}
