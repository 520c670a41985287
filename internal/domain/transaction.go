package domain

import "time"

// Типы проводок, связанных со ставкой на партию
const (
	TxTypeStake  = "game_stake"
	TxTypeRefund = "game_refund"
	TxTypePayout = "game_payout"
)

type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	SessionID *string                `db:"session_id" json:"session_id,omitempty"`
	Type      string                 `db:"type" json:"type"`
	Amount    int64                  `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
