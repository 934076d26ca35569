package risk

import (
	"fmt"

	"github.com/rxtech-lab/argo-runtime/pkg/errors"
)

// Violation is returned by CheckOrder when an order breaks a limit.
// Code is ErrCodeKillSwitchActive when the global kill switch blocked the
// order and ErrCodeRiskViolation for every other limit.
type Violation struct {
	Code   errors.ErrorCode
	Reason string
}

func newViolation(format string, args ...any) *Violation {
	return &Violation{Code: errors.ErrCodeRiskViolation, Reason: fmt.Sprintf(format, args...)}
}

func newKillSwitchViolation(reason string) *Violation {
	return &Violation{Code: errors.ErrCodeKillSwitchActive, Reason: reason}
}

func (v *Violation) code() errors.ErrorCode {
	if v.Code == 0 {
		return errors.ErrCodeRiskViolation
	}

	return v.Code
}

func (v *Violation) Error() string {
	return fmt.Sprintf("[%d] risk violation: %s", v.code(), v.Reason)
}

// Unwrap exposes the coded form so errors.GetCode reports the violation code.
func (v *Violation) Unwrap() error {
	return errors.New(v.code(), v.Reason)
}

// IsViolation reports whether err is or wraps a Violation.
func IsViolation(err error) bool {
	var v *Violation

	return errors.As(err, &v)
}

// AsViolation extracts the Violation from err.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}

	return nil, false
}
