package llm

import "errors"

var (
	// ErrInvalidAPIKey indicates an invalid or missing API key.
	ErrInvalidAPIKey = errors.New("invalid or missing API key")

	// ErrProviderNotSupported indicates an unknown LLM_PROVIDER value.
	ErrProviderNotSupported = errors.New("llm provider not supported")

	// ErrNoMessages indicates a request without messages.
	ErrNoMessages = errors.New("request has no messages")

	// ErrEmptyResponse indicates the model returned no text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrCompletionFailed wraps provider errors from a chat completion call.
	ErrCompletionFailed = errors.New("failed to create completion")

	// ErrUploadFailed wraps provider errors from a file upload.
	ErrUploadFailed = errors.New("failed to upload file")

	// ErrEmptyFile indicates an upload without content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrClientCreationFailed indicates a failure in creating the API client.
	ErrClientCreationFailed = errors.New("failed to create API client")
)
