package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequisitionStatus is the workflow state machine:
// pending → approved | rejected, approved → ordered, ordered → received.
// rejected, received and cancelled are terminal.
type RequisitionStatus string

const (
	RequisitionPending   RequisitionStatus = "pending"
	RequisitionApproved  RequisitionStatus = "approved"
	RequisitionRejected  RequisitionStatus = "rejected"
	RequisitionOrdered   RequisitionStatus = "ordered"
	RequisitionReceived  RequisitionStatus = "received"
	RequisitionCancelled RequisitionStatus = "cancelled"
)

type RequisitionPriority string

const (
	PriorityLow    RequisitionPriority = "low"
	PriorityMedium RequisitionPriority = "medium"
	PriorityHigh   RequisitionPriority = "high"
	PriorityUrgent RequisitionPriority = "urgent"
)

// Requisition is an internal purchase request. EstimatedTotal is a cached
// projection of its line items — the items are the source of truth and the
// total is recomputed on every line mutation.
type Requisition struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequisitionNumber string    `gorm:"uniqueIndex;not null"`
	Title             string    `gorm:"not null"`
	Description       *string
	Purpose           *string
	Department        *string

	VerticalID *uuid.UUID `gorm:"type:uuid;index"`
	ProgramID  *uuid.UUID `gorm:"type:uuid;index"`

	RequestedBy    uuid.UUID           `gorm:"type:uuid;not null"`
	Priority       RequisitionPriority `gorm:"type:varchar(10);not null;default:'medium'"`
	Status         RequisitionStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	EstimatedTotal decimal.Decimal     `gorm:"type:decimal(14,2);not null;default:0"`

	ApprovedBy   *uuid.UUID `gorm:"type:uuid"`
	ApprovedDate *time.Time

	RejectedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedDate    *time.Time
	RejectionReason *string

	OrderedBy   *uuid.UUID `gorm:"type:uuid"`
	OrderedDate *time.Time
	VendorID    *uuid.UUID `gorm:"type:uuid"`
	PONumber    *string    `gorm:"column:po_number"`

	ReceivedBy   *uuid.UUID `gorm:"type:uuid"`
	ReceivedDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []RequisitionItem `gorm:"foreignKey:RequisitionID;constraint:OnDelete:CASCADE"`
}

func (Requisition) TableName() string { return "requisitions" }

// Terminal reports whether no further transition can leave this status.
func (s RequisitionStatus) Terminal() bool {
	return s == RequisitionRejected || s == RequisitionReceived || s == RequisitionCancelled
}

// ValidPriority reports membership in the closed priority set.
func ValidPriority(p RequisitionPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
