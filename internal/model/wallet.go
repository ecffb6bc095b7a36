package model

import "time"

// WalletID is the single metered balance. Amounts are in mills,
// 1/1000 of the display currency unit.
const WalletID = "default"

type Wallet struct {
	ID        string    `gorm:"primaryKey;column:id;type:char(36)"`
	Balance   int64     `gorm:"column:balance;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

const (
	WalletEntryReserve = "RESERVE"
	WalletEntryRefund  = "REFUND"
	WalletEntryTopUp   = "TOPUP"
)

// WalletEntry is the audit trail for every balance mutation.
type WalletEntry struct {
	ID        string    `gorm:"primaryKey;column:id;type:char(36);<-:create"`
	WalletID  string    `gorm:"column:wallet_id;index;<-:create"`
	Kind      string    `gorm:"column:kind;<-:create"`
	Amount    int64     `gorm:"column:amount;<-:create"`
	JobID     *string   `gorm:"column:job_id;<-:create"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (WalletEntry) TableName() string {
	return "wallet_entries"
}
