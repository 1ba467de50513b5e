package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"decisiondash/internal/models"
)

// UploadFileField is the multipart field the upload endpoint reads
const UploadFileField = "file"

// UploadResponse is the upload endpoint's reply
type UploadResponse struct {
	Message string               `json:"message"`
	Data    *models.UploadResult `json:"data,omitempty"`
}

// Upload posts one CSV file for the given type
func (c *Client) Upload(ctx context.Context, t models.UploadType, filename string, r io.Reader) (*UploadResponse, error) {
	if !t.Valid() {
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown upload type %q", t)}
	}
	if r == nil || filename == "" {
		return nil, &ValidationError{Field: "file", Message: "Please select a file"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadFileField, filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/data/upload/" + string(t),
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, malformed(err)
		}
	}
	return &resp, nil
}
