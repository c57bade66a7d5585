package domain

import "time"

// Tenant is a storefront owner; every catalog, promotion and cart row is scoped to one.
type Tenant struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}
