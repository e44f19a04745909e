package producer

import "fmt"

// ErrFile carries a POSIX errno from a failed open call,
// propagated as Data content per §6's exit-code note ("other negative
// codes propagate POSIX errno numbers from the producer") and §C's
// errno-propagation supplement.
type ErrFile struct {
	Op    string
	Path  string
	Errno int
}

func (e ErrFile) Error() string {
	return fmt.Sprintf("%s %s: errno %d", e.Op, e.Path, e.Errno)
}
