package testutil

// MatchAssertionError occurs when a message was expected to match a
// pattern and did not.  Expected and Actual are carried for diff
// reporting.
type MatchAssertionError struct {
	Expected interface{}
	Actual   interface{}
}

func (e *MatchAssertionError) Error() string {
	return "expected a message matching " + JS(e.Expected) + "; got " + JS(e.Actual)
}

// MissingMessageError occurs when an assertion was made against a
// message that was never received.
type MissingMessageError struct {
	Pattern interface{}
}

func (e *MissingMessageError) Error() string {
	return "no message was sent (expected one matching " + JS(e.Pattern) + ")"
}
