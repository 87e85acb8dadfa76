package conversation

import (
	"errors"
	"fmt"
)

// Repository sentinels.
var (
	ErrAnalysisNotFound     = errors.New("analysis not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationExists   = errors.New("conversation already exists for analysis")
	ErrBudgetExhausted      = errors.New("question budget exhausted")
)

// Kind classifies orchestrator failures so callers can choose a response
// without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindNotOwned
	KindNotCompleted
	KindBudgetExceeded
	KindPolicyRejected
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNotOwned:
		return "not_owned"
	case KindNotCompleted:
		return "not_completed"
	case KindBudgetExceeded:
		return "budget_exceeded"
	case KindPolicyRejected:
		return "policy_rejected"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is returned by every Service operation. Reason is safe to show to
// the end user; Err carries the detail for logs.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversation.%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("conversation.%s: %s", e.Op, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf returns the user-facing reason of err.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	return reasonInternal
}

const (
	reasonInternal       = "Something went wrong. Please try again."
	reasonNotFound       = "Conversation not found."
	reasonAnalysisAbsent = "Analysis not found."
	reasonNotOwned       = "You do not have access to this analysis."
	reasonNotCompleted   = "Analysis is not completed yet."
	reasonBudget         = "You have reached the maximum number of follow-up questions for this analysis."
	reasonUpstream       = "Could not generate a response. Please try again."
)

func fail(op string, kind Kind, reason string, err error) error {
	return &Error{Kind: kind, Op: op, Reason: reason, Err: err}
}
