package catalog

import (
	"errors"
	"fmt"
)

// NetworkError reports a transport failure or an unsuccessful response status.
type NetworkError struct {
	// StatusCode is set when the API answered with a non-2xx status.
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog: api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a payload that does not match the Product shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("catalog: decode product: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsNetwork reports whether err carries a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsDecode reports whether err carries a DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsDecode(err):
		return OutcomeDecodeError
	default:
		return OutcomeNetworkError
	}
}

// Fetch outcomes reported to observers.
const (
	OutcomeSuccess      = "success"
	OutcomeNetworkError = "network_error"
	OutcomeDecodeError  = "decode_error"
)
