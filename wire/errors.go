package wire

import (
	"errors"
	"fmt"
)

// ErrDataLoss is the single failure kind reported for malformed, truncated,
// contradictory or out-of-range wire input. Every *DataError matches it.
var ErrDataLoss = errors.New("data loss")

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

// NewDataError reports malformed data found at offset off of data. err is
// the underlying cause and may be nil.
func NewDataError(data []byte, off int, err error, format string, args ...any) *DataError {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return NewDataError(data, off, err, format, args...)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Is(target error) bool {
	return target == ErrDataLoss
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}
