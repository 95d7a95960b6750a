package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a ledger entry
type TransactionStatus string

const (
	TransactionStatusReserved TransactionStatus = "reserved"
	TransactionStatusVerified TransactionStatus = "verified"
	TransactionStatusFailed   TransactionStatus = "failed"
)

// ProvisionAction is the upstream mutation performed for a verified payment
type ProvisionAction string

const (
	ProvisionActionCreate ProvisionAction = "create"
	ProvisionActionRenew  ProvisionAction = "renew"
)

// Transaction is the append-only ledger record for one payment notification.
// It is created at reservation and written once at completion.
type Transaction struct {
	ID               string                 `json:"transaction_id" gorm:"primaryKey;size:100"`
	Account          string                 `json:"account" gorm:"size:100;index"`
	Amount           decimal.Decimal        `json:"amount" gorm:"type:decimal(10,2)"`
	Currency         string                 `json:"currency" gorm:"size:3"`
	PaidForMonths    int                    `json:"paid_for"`
	Action           ProvisionAction        `json:"action,omitempty" gorm:"size:10"`
	UpstreamResponse map[string]interface{} `json:"upstream_response,omitempty" gorm:"serializer:json"`
	ReceiptReference string                 `json:"receipt_reference,omitempty" gorm:"size:100"`
	Status           TransactionStatus      `json:"status" gorm:"size:10;not null"`
	CreatedAt        time.Time              `json:"created_at"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}
