package services

import "fmt"

// UnitFailurePolicy decides what a failed unit insert does to the run.
type UnitFailurePolicy string

const (
	// UnitFailureIgnore drops the failure without any output.
	UnitFailureIgnore UnitFailurePolicy = "ignore"
	// UnitFailureReport prints an error line and continues.
	UnitFailureReport UnitFailurePolicy = "report"
	// UnitFailureAbort stops the run with the failure.
	UnitFailureAbort UnitFailurePolicy = "abort"
)

// ParseUnitFailurePolicy maps a configured value to a policy. Empty selects
// UnitFailureIgnore.
func ParseUnitFailurePolicy(s string) (UnitFailurePolicy, error) {
	switch UnitFailurePolicy(s) {
	case "", UnitFailureIgnore:
		return UnitFailureIgnore, nil
	case UnitFailureReport:
		return UnitFailureReport, nil
	case UnitFailureAbort:
		return UnitFailureAbort, nil
	default:
		return "", fmt.Errorf("unknown unit failure policy %q (want ignore, report or abort)", s)
	}
}
