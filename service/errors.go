package service

import (
	"errors"
	"fmt"
)

// ErrInsufficientCredits is returned when a deduction would take a balance
// at or below zero. The deduction is refused without mutating anything.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrReportNotFound is returned when a cached report is missing or evicted
var ErrReportNotFound = errors.New("report not found")

// RedemptionReason classifies why a redemption was refused
type RedemptionReason string

const (
	RedemptionNotFound    RedemptionReason = "not_found"
	RedemptionExpired     RedemptionReason = "expired"
	RedemptionExhausted   RedemptionReason = "exhausted"
	RedemptionAlreadyUsed RedemptionReason = "already_used"
)

// RedemptionError reports a refused redemption with its specific reason.
// No state is mutated when it is returned.
type RedemptionError struct {
	Reason RedemptionReason
}

func (e *RedemptionError) Error() string {
	return fmt.Sprintf("redemption refused: %s", e.Reason)
}

// AsRedemptionError unwraps err into a RedemptionError if it is one
func AsRedemptionError(err error) (*RedemptionError, bool) {
	var re *RedemptionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
