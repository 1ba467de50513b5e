// Package uploads sends CSV files to the upload service and remembers the
// last outcome per data type.
package uploads

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
)

const (
	successFallback = "File uploaded successfully!"
	failureFallback = "Upload failed. Please try again."
)

// Uploader is the API surface this package needs
type Uploader interface {
	Upload(ctx context.Context, t models.UploadType, filename string, r io.Reader) (*api.UploadResponse, error)
}

// Outcome is the last attempt for one upload type
type Outcome struct {
	Type     models.UploadType
	Filename string
	Result   models.UploadResult
	At       time.Time
	Err      error
}

// Service uploads files and tracks outcomes. Each type's outcome is replaced,
// never merged, by the next attempt for that type.
type Service struct {
	client Uploader

	mu       sync.RWMutex
	outcomes map[models.UploadType]Outcome
}

// New creates an upload service
func New(client Uploader) *Service {
	return &Service{
		client:   client,
		outcomes: make(map[models.UploadType]Outcome),
	}
}

// Upload sends one file. Validation failures are recorded without a network call.
// The returned error is also available in the recorded outcome.
func (s *Service) Upload(ctx context.Context, t models.UploadType, filename string, r io.Reader) (Outcome, error) {
	out := Outcome{Type: t, Filename: filename, At: time.Now()}

	resp, err := s.upload(ctx, t, filename, r)
	if err != nil {
		out.Err = err
		out.Result = models.UploadResult{Success: false, Message: api.Message(err, failureFallback)}
		if !api.IsValidation(err) {
			log.Printf("Upload %s (%s) failed: %v", t, filename, err)
		}
	} else {
		out.Result = result(resp)
		log.Printf("Uploaded %s (%s): %s", t, filename, out.Result.Message)
	}

	if t.Valid() {
		s.mu.Lock()
		s.outcomes[t] = out
		s.mu.Unlock()
	}
	return out, err
}

func (s *Service) upload(ctx context.Context, t models.UploadType, filename string, r io.Reader) (*api.UploadResponse, error) {
	if !t.Valid() {
		return nil, &api.ValidationError{Field: "type", Message: "Unknown upload type: " + string(t)}
	}
	if filename == "" || r == nil {
		return nil, &api.ValidationError{Field: "file", Message: "Please select a file"}
	}
	return s.client.Upload(ctx, t, filename, r)
}

// result merges the envelope message into the per-file result
func result(resp *api.UploadResponse) models.UploadResult {
	var res models.UploadResult
	if resp.Data != nil {
		res = *resp.Data
	}
	res.Success = true
	switch {
	case resp.Message != "":
		res.Message = resp.Message
	case res.Message == "":
		res.Message = successFallback
	}
	return res
}

// Outcome returns the last attempt for t
func (s *Service) Outcome(t models.UploadType) (Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outcomes[t]
	return o, ok
}

// Outcomes returns the last attempt for every type that has one
func (s *Service) Outcomes() map[models.UploadType]Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.UploadType]Outcome, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out
}

// Reset forgets all outcomes, e.g. on logout
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = make(map[models.UploadType]Outcome)
}
