package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GoogleFiles implements FileService with the Gemini Files API.
// References are file resource names ("files/abc123"). Gemini removes
// uploaded files after 48 hours, which Validate reports as invalid.
type GoogleFiles struct {
	client *genai.Client
}

// Upload stores data and returns the file resource name.
func (f *GoogleFiles) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	file, err := f.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType:    detectContentType(data),
		DisplayName: name,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return file.Name, nil
}

// Validate reports files that are gone or failed processing as invalid.
func (f *GoogleFiles) Validate(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		file, err := f.client.Files.Get(ctx, id, nil)
		if err != nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusForbidden) {
				result[id] = false
				continue
			}
			return nil, fmt.Errorf("validate file: %w", err)
		}
		result[id] = file.State != genai.FileStateFailed
	}
	return result, nil
}
