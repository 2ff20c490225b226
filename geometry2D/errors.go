package geometry2D

import "fmt"

// ConfigurationError reports an invalid or inconsistent geometry setup:
// non-positive block counts, a domain that does not divide evenly into
// voxels, or a refinement pass that leaves no usable leaf blocks. It is
// detected once at initialization and aborts the build.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// BalanceError reports that the existing leaves could not be distributed
// across the requested worker count in any meaningful way. Workers exceeding
// the leaf count is NOT a BalanceError - the extra workers simply idle.
type BalanceError struct {
	Msg string
}

func (e *BalanceError) Error() string {
	return "balance error: " + e.Msg
}
