package models

import (
	"time"
)

// MeterReading is one validated meter reading ready for insertion.
type MeterReading struct {
	// MeterID is the customer-assigned meter identifier
	// ("Zähler Custom ID" in the import dialog).
	MeterID string `json:"zaehler_custom_id"`

	// TenantID links the reading to a tenant when the import sheet
	// carries one. Optional.
	TenantID string `json:"mieter_id,omitempty"`

	// ReadingDate is the date the meter was read ("Ablesedatum").
	ReadingDate time.Time `json:"ablesedatum"`

	// Value is the meter value ("Zählerstand").
	Value float64 `json:"zaehlerstand"`
}
