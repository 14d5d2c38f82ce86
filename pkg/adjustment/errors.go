package adjustment

// PreconditionError reports that an operation could not start because
// required state is missing. It is not retryable; the caller has to supply
// the missing input first.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "adjustment: " + e.Reason
}

// ErrNoVolume is returned by ApplyToVolume when no volume was passed and
// none has been registered.
var ErrNoVolume = &PreconditionError{Reason: "no volume available"}
