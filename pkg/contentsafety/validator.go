package contentsafety

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// Validator checks follow-up questions against a Policy.
// It is safe for concurrent use and has no side effects.
type Validator struct {
	minLength   int
	maxLength   int
	injection   []*regexp.Regexp
	forbidden   []string
	future      []*regexp.Regexp
	domainTerms []string
}

// New compiles p into a Validator. It panics if a pattern does not compile.
func New(p Policy) *Validator {
	return &Validator{
		minLength:   p.MinLength,
		maxLength:   p.MaxLength,
		injection:   compileAll(p.Injection),
		forbidden:   lowerAll(p.ForbiddenKeywords),
		future:      compileAll(p.FuturePatterns),
		domainTerms: lowerAll(p.DomainTerms),
	}
}

var defaultValidator = sync.OnceValue(func() *Validator {
	return New(DefaultPolicy())
})

// Default returns the shared validator for DefaultPolicy.
func Default() *Validator {
	return defaultValidator()
}

// Validate checks q with the default validator.
func Validate(q string) error {
	return Default().Validate(q)
}

// Validate returns nil for an acceptable question or a *Violation for the
// first rule it breaks.
func (v *Validator) Validate(q string) error {
	text := strings.TrimSpace(q)
	if text == "" {
		return violation(ErrEmpty, "Question cannot be empty.")
	}

	n := utf8.RuneCountInString(text)
	if v.minLength > 0 && n < v.minLength {
		return violation(ErrTooShort, "Question is too short. Please provide more detail.")
	}
	if v.maxLength > 0 && n > v.maxLength {
		return violation(ErrTooLong, "Question is too long. Please keep it shorter.")
	}

	for _, re := range v.injection {
		if re.MatchString(text) {
			return violation(ErrProhibited, "Question contains prohibited content.")
		}
	}

	lower := strings.ToLower(text)
	if containsAny(lower, v.forbidden) {
		return violation(ErrTopicNotAllowed, "This topic is not allowed. Please ask about your palm reading.")
	}

	for _, re := range v.future {
		if re.MatchString(text) {
			return violation(ErrFuturePrediction,
				"Palm reading cannot predict specific future events. Ask about tendencies, traits or potential instead.")
		}
	}

	if len(v.domainTerms) > 0 && !containsAny(lower, v.domainTerms) {
		return violation(ErrOffTopic, "Question must be related to your palm reading.")
	}

	return nil
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func violation(err error, message string) error {
	return &Violation{Err: err, Message: message}
}
