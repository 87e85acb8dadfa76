package contentsafety

import "errors"

var (
	ErrEmpty            = errors.New("question is empty")
	ErrTooShort         = errors.New("question is too short")
	ErrTooLong          = errors.New("question is too long")
	ErrProhibited       = errors.New("question contains prohibited content")
	ErrTopicNotAllowed  = errors.New("question topic is not allowed")
	ErrFuturePrediction = errors.New("question asks for a specific future prediction")
	ErrOffTopic         = errors.New("question is not related to palm reading")
)

// Violation is the verdict for a rejected question. Message is safe to show
// to the end user; Err is one of the package sentinels.
type Violation struct {
	Err     error
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

func (v *Violation) Unwrap() error {
	return v.Err
}

// Code returns a stable machine-readable identifier for the violation.
func (v *Violation) Code() string {
	switch v.Err {
	case ErrEmpty:
		return "empty"
	case ErrTooShort:
		return "too_short"
	case ErrTooLong:
		return "too_long"
	case ErrProhibited:
		return "prohibited_content"
	case ErrTopicNotAllowed:
		return "topic_not_allowed"
	case ErrFuturePrediction:
		return "future_prediction"
	case ErrOffTopic:
		return "off_topic"
	}
	return "rejected"
}
