package workflow

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/credentials"
)

var (
	ErrNoMatch               = errors.New("no matching identity")
	ErrWrongPassword         = errors.New("wrong password")
	ErrOverwriteNotConfirmed = errors.New("overwrite not confirmed")
	ErrInFlight              = errors.New("request already in flight")
	ErrInvalidInput          = errors.New("invalid input")
)

// Kind is the coarse result the UI renders.
type Kind int

const (
	Success Kind = iota
	Rejected
	Fault
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Rejected:
		return "rejected"
	case Fault:
		return "fault"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of one workflow run. Err is the rejection reason or
// fault cause and is nil on success.
type Outcome struct {
	Kind Kind
	Err  error

	Name        string
	UserID      int64
	Distance    float64
	Token       string
	Overwritten bool
}

// Category names the fault family of Err: "detection", "store", "io", or
// an empty string when Err carries none.
func (o Outcome) Category() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, common.ErrDetectionFault):
		return "detection"
	case errors.Is(o.Err, common.ErrStoreFault):
		return "store"
	case errors.Is(o.Err, common.ErrIOFault):
		return "io"
	default:
		return ""
	}
}

func (o Outcome) String() string {
	if o.Err == nil {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s: %v", o.Kind, o.Err)
}

var rejections = []error{
	ErrNoMatch,
	ErrWrongPassword,
	ErrOverwriteNotConfirmed,
	ErrInFlight,
	ErrInvalidInput,
	credentials.ErrDuplicateName,
	credentials.ErrNotFound,
}

// Classify maps an error from the engine or the store to an outcome kind.
func Classify(err error) Kind {
	if err == nil {
		return Success
	}
	for _, r := range rejections {
		if errors.Is(err, r) {
			return Rejected
		}
	}
	return Fault
}

func outcomeFor(err error) Outcome {
	return Outcome{Kind: Classify(err), Err: err}
}
