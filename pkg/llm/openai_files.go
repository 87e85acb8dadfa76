package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIFiles implements FileService with the OpenAI Files API.
type OpenAIFiles struct {
	client  openai.Client
	reqOpts []option.RequestOption
	purpose openai.FilePurpose
}

// OpenAIFilesOption configures OpenAIFiles.
type OpenAIFilesOption func(*OpenAIFiles)

// WithFilePurpose sets the purpose for uploaded files. Default is "vision".
func WithFilePurpose(purpose openai.FilePurpose) OpenAIFilesOption {
	return func(f *OpenAIFiles) {
		if purpose != "" {
			f.purpose = purpose
		}
	}
}

// WithFilesRequestOptions passes extra request options to the client,
// e.g. option.WithBaseURL in tests.
func WithFilesRequestOptions(opts ...option.RequestOption) OpenAIFilesOption {
	return func(f *OpenAIFiles) {
		f.reqOpts = append(f.reqOpts, opts...)
	}
}

// NewOpenAIFiles creates the file service.
func NewOpenAIFiles(apiKey string, opts ...OpenAIFilesOption) (*OpenAIFiles, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	f := &OpenAIFiles{
		reqOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
		purpose: openai.FilePurposeVision,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = openai.NewClient(f.reqOpts...)
	return f, nil
}

// Upload stores data and returns the file ID.
func (f *OpenAIFiles) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	obj, err := f.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(data), name, detectContentType(data)),
		Purpose: f.purpose,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return obj.ID, nil
}

// Validate looks every ID up. Missing files and files in the error state are
// reported invalid; any other API failure aborts validation.
func (f *OpenAIFiles) Validate(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		obj, err := f.client.Files.Get(ctx, id)
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				result[id] = false
				continue
			}
			return nil, fmt.Errorf("validate file: %w", err)
		}
		result[id] = obj.Status != openai.FileObjectStatusError
	}
	return result, nil
}
