// Package contentsafety screens follow-up questions before they reach the LLM.
//
// Checks run in a fixed order and the first failure wins: empty input, minimum
// and maximum length, prompt-injection patterns, forbidden topics, requests
// for specific future predictions, and finally a requirement that the
// question mentions palm reading vocabulary.
//
//	if err := contentsafety.Validate(question); err != nil {
//		var v *contentsafety.Violation
//		if errors.As(err, &v) {
//			// v.Message is safe to show to the user
//		}
//	}
//
// The checks are keyword and regex based. They are deterministic and cheap,
// and they can be evaded with character substitution or unusual spacing, so
// they are a first filter in front of the model rather than a security
// boundary.
package contentsafety
