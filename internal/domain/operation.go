package domain

// Operation is a decoded transaction operation. The set of implementations
// is closed: PaymentOp, TrustChangeOp and OtherOp.
type Operation interface {
	operation()
}

// PaymentOp moves Amount of Asset to Destination.
type PaymentOp struct {
	Asset Asset
	// SourceOverride is empty when the operation uses the transaction source.
	SourceOverride string
	Destination    string
	// Amount in stroops, as encoded on the ledger.
	Amount int64
}

// TrustChangeOp creates, updates or removes a trustline to Asset.
type TrustChangeOp struct {
	Asset          Asset
	SourceOverride string
}

// OtherOp is any operation the collector does not project.
type OtherOp struct {
	Type string
}

func (PaymentOp) operation()     {}
func (TrustChangeOp) operation() {}
func (OtherOp) operation()       {}

// effectiveSource applies the per-operation source override.
func effectiveSource(override, txSource string) string {
	if override != "" {
		return override
	}

	return txSource
}

// Source returns the account the payment is sent from.
func (op PaymentOp) Source(txSource string) string {
	return effectiveSource(op.SourceOverride, txSource)
}

// Source returns the account whose trustline changes.
func (op TrustChangeOp) Source(txSource string) string {
	return effectiveSource(op.SourceOverride, txSource)
}
