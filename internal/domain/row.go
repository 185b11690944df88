package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// amountScale is the number of decimal places in a ledger amount.
const amountScale = 7

// PaymentRow is a persisted payment of the tracked asset.
// Memo holds the raw memo bytes exactly as they appear on the ledger.
type PaymentRow struct {
	CloseTime   time.Time
	Memo        *string
	ID          string
	Source      string
	Destination string
	TxHash      string
	Amount      decimal.Decimal
	OpIndex     int
}

// TrustlineRow is a persisted trustline change for the tracked asset.
// Memo holds the raw memo bytes exactly as they appear on the ledger.
type TrustlineRow struct {
	CloseTime time.Time
	Memo      *string
	ID        string
	Source    string
	TxHash    string
	OpIndex   int
}

// Batch holds every row projected from one archive file pair.
type Batch struct {
	Payments   []PaymentRow
	Trustlines []TrustlineRow
}

// Len returns the total number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}

	return len(b.Payments) + len(b.Trustlines)
}

// AmountFromStroops converts an on-ledger Int64 amount without rounding.
func AmountFromStroops(stroops int64) decimal.Decimal {
	return decimal.New(stroops, -amountScale)
}

// MemoText renders a raw memo as text a database will accept. Memo text
// is an arbitrary byte string of up to 28 bytes: invalid UTF-8 sequences
// become U+FFFD and NUL bytes are dropped.
func MemoText(raw string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(raw, "\uFFFD"), "\x00", "")
}
