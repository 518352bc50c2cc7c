package sample

// ErrRange is the sentinel matched by every *RangeError.
// Use errors.Is(err, sample.ErrRange) to check for it.
var ErrRange = &RangeError{}

// RangeError reports slice or chunk arguments outside the batch.
type RangeError struct {
	Op     string
	Reason string
}

func (e *RangeError) Error() string {
	if e.Op == "" {
		return "range error: " + e.Reason
	}
	return "range error: " + e.Op + ": " + e.Reason
}

func (e *RangeError) Is(target error) bool {
	_, ok := target.(*RangeError)
	return ok
}
