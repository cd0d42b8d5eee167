package graphcbo

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
)

// Sentinel errors returned by the estimators.
var (
	// ErrCostUnavailable is returned when a cost or weight depends on a pattern
	// whose cardinality cannot be estimated (no intersection vertex and too
	// large for a direct catalog lookup). It is distinct from a cost of zero:
	// the planner must apply its own fallback or reject the candidate order.
	ErrCostUnavailable = errors.New("graphcbo: cost unavailable")

	// ErrJoinNotSupported is returned by JoinCostEstimator, which is reserved
	// for binary-join plans and is not implemented yet.
	ErrJoinNotSupported = errors.New("graphcbo: join cost estimation is not supported")

	// ErrPreconditionViolation marks a recovered panic raised by a caller
	// defect: zero divisor, malformed extend endpoint, invalid selectivity.
	ErrPreconditionViolation = errors.New("graphcbo: precondition violation")

	// ErrInvalidPattern is returned by PatternBuilder.Build.
	ErrInvalidPattern = errors.New("graphcbo: invalid pattern")
)

// precondition panics with an assertion failure when ok is false.
// Used for caller defects that must fail loudly instead of producing a number.
func precondition(ok bool, format string, args ...any) {
	if !ok {
		panic(errors.AssertionFailedf(format, args...))
	}
}

// nonZero panics when an estimated divisor is zero.
func nonZero(v float64, what string, subject fmt.Stringer) float64 {
	precondition(v != 0, "graphcbo: %s estimates to zero for %s; unreachable extensions must be filtered before costing", what, subject)
	return v
}

// IsPreconditionViolation reports whether err stems from a caller defect.
func IsPreconditionViolation(err error) bool {
	return errors.Is(err, ErrPreconditionViolation) || errors.HasAssertionFailure(err)
}

// ---------------------------------------------------------------------------
// Panic recovery
// ---------------------------------------------------------------------------

// Safe runs fn and converts a panic into an error marked with
// ErrPreconditionViolation. Estimators panic on caller defects; outer
// boundaries (CLI commands, batch evaluation) use Safe so one bad candidate
// does not take the process down.
func Safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return fn()
}

// SafeValue is the generic version of Safe for functions returning a value.
func SafeValue[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = recoveredError(r)
		}
	}()
	return fn()
}

func recoveredError(r any) error {
	// 4KB is enough for estimator stacks; runtime.Stack truncates if needed.
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	cause, ok := r.(error)
	if !ok {
		cause = errors.Newf("%v", r)
	}
	return errors.Mark(errors.WithDetailf(cause, "stack trace:\n%s", buf[:n]), ErrPreconditionViolation)
}
