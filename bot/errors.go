package bot

// These errors are user errors, not internal errors.

import "errors"

// TransitionFailure occurs when a reducer or a transition hook fails
// during dispatch.  The dispatch's caller gets this error; the
// in-flight marker is still released and the queue still drained.
type TransitionFailure struct {
	Bot    string
	Action Action

	// Mutation is the mutation whose hook failed, or nil when the
	// reducer itself failed.
	Mutation *Mutation

	Err error
}

func (e *TransitionFailure) Error() string {
	what := "reducer"
	if e.Mutation != nil {
		what = `transition "` + e.Mutation.Type + `"`
	}
	return what + ` failed for action "` + e.Action.Type + `" on bot "` + e.Bot + `": ` + e.Err.Error()
}

func (e *TransitionFailure) Unwrap() error {
	return e.Err
}

// NoSnapshot occurs when PopState finds an empty snapshot stack.
var NoSnapshot = errors.New("no snapshot")
