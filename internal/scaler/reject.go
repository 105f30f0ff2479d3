package scaler

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Reason tells why a sheet cannot be scaled.
type Reason int

const (
	// ReasonBlank means the sheet holds almost no foreground pixels.
	ReasonBlank Reason = iota
	// ReasonNoBlackPeak means no staff line thickness could be found.
	ReasonNoBlackPeak
	// ReasonNoComboPeak means no regularly spaced lines were found.
	ReasonNoComboPeak
	// ReasonLowResolution means the interline is too small to process.
	ReasonLowResolution
	// ReasonHighInterline means the interline is too large for a music page.
	ReasonHighInterline
)

func (r Reason) String() string {
	switch r {
	case ReasonBlank:
		return "blank"
	case ReasonNoBlackPeak:
		return "no-black-peak"
	case ReasonNoComboPeak:
		return "no-combo-peak"
	case ReasonLowResolution:
		return "low-resolution"
	case ReasonHighInterline:
		return "high-interline"
	default:
		return "unknown"
	}
}

// Mandatory reports whether the reason always invalidates the sheet,
// as opposed to resolution doubts a decider may overrule.
func (r Reason) Mandatory() bool {
	switch r {
	case ReasonBlank, ReasonNoBlackPeak, ReasonNoComboPeak:
		return true
	default:
		return false
	}
}

// RejectedError reports a sheet that cannot provide a scale.
type RejectedError struct {
	Reason  Reason
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("sheet rejected (%s): %s", e.Reason, e.Message)
}

func reject(reason Reason, format string, args ...any) *RejectedError {
	return &RejectedError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Decider decides whether a doubtful sheet should be removed from processing.
// dummy means the decision is already taken and the call is only a notification.
type Decider interface {
	DecideOnRemoval(message string, dummy bool) bool
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(message string, dummy bool) bool

// DecideOnRemoval implements Decider.
func (f DeciderFunc) DecideOnRemoval(message string, dummy bool) bool {
	return f(message, dummy)
}

// AutoDecider removes every doubtful sheet, as done in batch mode.
type AutoDecider struct{}

// DecideOnRemoval implements Decider.
func (AutoDecider) DecideOnRemoval(string, bool) bool { return true }

// KeepDecider keeps doubtful sheets; mandatory rejections still apply.
type KeepDecider struct{}

// DecideOnRemoval implements Decider.
func (KeepDecider) DecideOnRemoval(_ string, dummy bool) bool { return dummy }

// PromptDecider asks the user on in/out. Calls are serialized so that
// sheets processed in parallel do not interleave their questions.
type PromptDecider struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPromptDecider creates a decider asking questions on out and reading answers from in.
func NewPromptDecider(in io.Reader, out io.Writer) *PromptDecider {
	return &PromptDecider{in: bufio.NewReader(in), out: out}
}

// DecideOnRemoval implements Decider. A notification only prints the message.
// Any answer other than "n" or "no" removes the sheet.
func (d *PromptDecider) DecideOnRemoval(message string, dummy bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if dummy {
		fmt.Fprintf(d.out, "%s\n", message)
		return true
	}

	fmt.Fprintf(d.out, "%s\nRemove this sheet? [Y/n] ", message)
	answer, err := d.in.ReadString('\n')
	if err != nil && answer == "" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return false
	default:
		return true
	}
}
