package parallel

import "fmt"

// ProtocolError reports an absent or mis-sized cross worker transfer at a
// synchronization barrier. The communication graph is fixed at partition
// time, so a gap is a defect, never transient unavailability: the error is
// fatal for the run and must not be retried.
type ProtocolError struct {
	Step  int
	Owner int
	Nbr   int
	Msg   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error at step %d (block %d <- %d): %s",
		e.Step, e.Owner, e.Nbr, e.Msg)
}
