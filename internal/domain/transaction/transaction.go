package transaction

import (
	"strings"

	"github.com/google/uuid"
)

// Transaction is one pending purchase awaiting USSD confirmation.
type Transaction struct {
	ID     string `json:"id"`
	Name   string `json:"extracted_name,omitempty"`
	Phone  string `json:"extracted_phone_number,omitempty"`
	Amount Amount `json:"extracted_amount"`
	Offer  string `json:"purchased_offer,omitempty"`
}

// New creates a transaction, generating an identifier when id is empty.
func New(id, name, phone string, amount Amount, offer string) Transaction {
	if id == "" {
		id = uuid.New().String()
	}
	return Transaction{
		ID:     id,
		Name:   name,
		Phone:  strings.TrimSpace(phone),
		Amount: amount,
		Offer:  offer,
	}
}

// HasPhone reports whether a confirmation SMS can be addressed.
func (t Transaction) HasPhone() bool {
	return strings.TrimSpace(t.Phone) != ""
}

// Sim is one active subscription reported by the device bridge.
type Sim struct {
	SubscriptionID int    `json:"subscription_id"`
	DisplayName    string `json:"display_name"`
	SlotIndex      int    `json:"slot_index"`
}
