package domain

import "time"

// Customer is identified by NationalID; ID is the surrogate key.
type Customer struct {
	ID         int64     `json:"id"`
	NationalID string    `json:"nationalId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SameName reports whether the stored names match the supplied ones exactly.
func (c Customer) SameName(first, last string) bool {
	return c.FirstName == first && c.LastName == last
}

type CustomerSummary struct {
	NationalID string `json:"nationalId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}
