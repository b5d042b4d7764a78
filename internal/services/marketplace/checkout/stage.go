package checkout

import "fmt"

// Stage is one step of the checkout wizard.
type Stage int

const (
	// StageAddress collects or selects the delivery address.
	StageAddress Stage = iota
	// StageSummary shows the order and its total.
	StageSummary
	// StagePayment finalizes the purchase.
	StagePayment
)

// String returns the wire name of the stage.
func (s Stage) String() string {
	switch s {
	case StageAddress:
		return "address"
	case StageSummary:
		return "summary"
	case StagePayment:
		return "payment"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// next returns the adjacent forward stage.
func (s Stage) next() (Stage, bool) {
	switch s {
	case StageAddress:
		return StageSummary, true
	case StageSummary:
		return StagePayment, true
	default:
		return s, false
	}
}

// previous returns the adjacent backward stage.
func (s Stage) previous() (Stage, bool) {
	switch s {
	case StageSummary:
		return StageAddress, true
	case StagePayment:
		return StageSummary, true
	default:
		return s, false
	}
}
