package domain

import "time"

// Customer represents a water service subscriber.
type Customer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// CustomerDetail bundles a customer with its most recent records.
type CustomerDetail struct {
	Customer Customer  `json:"customer"`
	Readings []Reading `json:"readings"`
	Invoices []Invoice `json:"invoices"`
	Notices  []Notice  `json:"notices"`
}
