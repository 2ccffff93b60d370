package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// TransactionMutatedMessage signals that a transaction was created or
// deleted for an account. It carries only identifiers; the worker reads
// the full history from storage before reconciling the balance.
type TransactionMutatedMessage struct {
	AccountID     string    `json:"account_id"`
	TransactionID string    `json:"transaction_id"`
	Op            string    `json:"op"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionMutatedMessage creates a mutation message for an account
func NewTransactionMutatedMessage(accountID, transactionID, op string) *TransactionMutatedMessage {
	return &TransactionMutatedMessage{
		AccountID:     accountID,
		TransactionID: transactionID,
		Op:            op,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionMutatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionMutatedMessageFromJSON creates a message from JSON bytes
func TransactionMutatedMessageFromJSON(data []byte) (*TransactionMutatedMessage, error) {
	var msg TransactionMutatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
