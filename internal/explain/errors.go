package explain

import "fmt"

// SampleSizeError reports a baseline sample request larger than the
// population. Fatal to the batch.
type SampleSizeError struct {
	Requested  int
	Population int
}

func (e *SampleSizeError) Error() string {
	return fmt.Sprintf("explain: baseline sample of %d exceeds population of %d", e.Requested, e.Population)
}

// AlignmentError reports score or impact data that does not line up with
// the feature rows. Fatal to the batch.
type AlignmentError struct {
	Detail string
}

func (e *AlignmentError) Error() string {
	return "explain: " + e.Detail
}

func alignmentErrorf(format string, args ...any) *AlignmentError {
	return &AlignmentError{Detail: fmt.Sprintf(format, args...)}
}
