package audio

import "fmt"

// InvalidInputError indicates a malformed or empty waveform
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// InvalidWindowError indicates an unusable windowing configuration
type InvalidWindowError struct {
	WindowSize int
	HopSize    int
	Reason     string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid window (size=%d hop=%d): %s", e.WindowSize, e.HopSize, e.Reason)
}

// DecodeError indicates a failure decoding a source file to PCM
type DecodeError struct {
	Path    string
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
