// Package llm wraps the chat completion and file APIs used for follow-up
// questions.
//
// Two backends are supported: OpenAI (github.com/openai/openai-go) and
// Google Gemini (google.golang.org/genai). Both implement Completer, and each
// has a FileService for uploading palm images once and referencing them in
// later requests.
//
//	p, err := llm.New(ctx, llm.Config{Provider: "openai", OpenAIAPIKey: key})
//	if err != nil {
//		return err
//	}
//	id, err := p.Files.Upload(ctx, "left-palm.jpg", data)
//	c, err := p.Complete(ctx, llm.Request{Messages: []llm.Message{
//		{Role: llm.RoleSystem, Content: "You are a palm reading assistant."},
//		{Role: llm.RoleUser, Content: question, Files: []string{id}},
//	}})
//
// Zero values in Request fall back to the model, token limit and
// temperature the client was built with.
package llm
