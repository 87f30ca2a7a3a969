package types

import "strings"

// Address is the snapshot stored on carts and orders. Orders keep a copy
// rather than a reference so they stay valid when the buyer profile changes.
type Address struct {
	FullName   string  `json:"fullName"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	District   string  `json:"district"`
	City       string  `json:"city"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// Validate reports whether the required address fields are present.
func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.FullName) == "":
		return errMissingField("fullName")
	case strings.TrimSpace(a.Line1) == "":
		return errMissingField("line1")
	case strings.TrimSpace(a.City) == "":
		return errMissingField("city")
	case strings.TrimSpace(a.Country) == "":
		return errMissingField("country")
	}
	return nil
}

type errMissingField string

func (e errMissingField) Error() string {
	return "address: missing " + string(e)
}
