// Package conversation runs follow-up question threads on completed palm
// readings.
//
// Each analysis has at most one conversation, created on first use by
// GetOrCreate. Creation snapshots the reading summary and report and uploads
// the palm images to the LLM provider concurrently, so later questions never
// reload the analysis. A conversation moves from zero questions asked to its
// budget (five by default) and then accepts no more questions.
//
// Ask checks, in order: ownership, remaining budget and the content policy
// from pkg/contentsafety. It then revalidates uploaded files, assembles the
// prompt from the snapshot and every earlier exchange, and calls the model
// under a timeout. The question and answer are stored together with the
// budget increment through Repository.RecordExchange, which refuses the write
// when a concurrent request already used the last question. A failed model
// call stores nothing.
//
// All failures are *Error values with a Kind:
//
//	switch conversation.KindOf(err) {
//	case conversation.KindNotFound, conversation.KindNotOwned:
//		// 404
//	case conversation.KindBudgetExceeded:
//		// 429
//	case conversation.KindPolicyRejected:
//		// 400 with conversation.ReasonOf(err)
//	}
//
// Conversations of other users are reported as not found.
package conversation
