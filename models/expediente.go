package models

import (
	"time"
)

// Precautionary measure (medida cautelar) status constants
const (
	PrecautionaryPending          = "PENDING"
	PrecautionaryGranted          = "GRANTED"
	PrecautionaryPartiallyGranted = "PARTIALLY_GRANTED"
	PrecautionaryDenied           = "DENIED"
)

// Expediente is a case file tracked from the judicial portal.
//
// Portal-sourced columns are rewritten by every sync; user-sourced columns
// are only ever written by manual edits.
type Expediente struct {
	CaseNumber string    `gorm:"primaryKey;size:64" json:"case_number"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Portal-sourced
	Title                string `gorm:"type:text" json:"title"` // carátula
	Status               string `json:"status"`
	LastPortalUpdateText string `gorm:"type:text" json:"last_portal_update_text"`
	LastPortalUpdateDate string `json:"last_portal_update_date"`
	PortalLink           string `json:"portal_link"`

	// User-sourced
	CourtName                  *string `json:"court_name,omitempty"`
	DivisionName               *string `json:"division_name,omitempty"`
	PrecautionaryMeasureStatus *string `gorm:"size:20" json:"precautionary_measure_status,omitempty"`
	Observations               *string `gorm:"type:text" json:"observations,omitempty"`

	Movements []Movement `gorm:"foreignKey:CaseNumber;references:CaseNumber" json:"movements,omitempty"`
	Tasks     []Task     `gorm:"foreignKey:CaseNumber;references:CaseNumber" json:"tasks,omitempty"`
	Notes     []Note     `gorm:"foreignKey:CaseNumber;references:CaseNumber" json:"notes,omitempty"`
}

// TableName overrides
func (Expediente) TableName() string {
	return "expedientes"
}

// IsValidPrecautionaryStatus checks a manually entered measure status
func IsValidPrecautionaryStatus(status string) bool {
	switch status {
	case PrecautionaryPending, PrecautionaryGranted, PrecautionaryPartiallyGranted, PrecautionaryDenied:
		return true
	}
	return false
}
