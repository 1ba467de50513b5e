package uploads

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decisiondash/internal/api"
	"decisiondash/internal/models"
)

type fakeUploader struct {
	calls int
	resp  *api.UploadResponse
	err   error
	body  string
}

func (f *fakeUploader) Upload(ctx context.Context, t models.UploadType, filename string, r io.Reader) (*api.UploadResponse, error) {
	f.calls++
	b, _ := io.ReadAll(r)
	f.body = string(b)
	return f.resp, f.err
}

func intPtr(v int) *int { return &v }

func TestUploadSuccessUsesServerMessage(t *testing.T) {
	up := &fakeUploader{resp: &api.UploadResponse{
		Message: "Imported 2 rows",
		Data:    &models.UploadResult{TotalRows: intPtr(3), Inserted: intPtr(2), Skipped: intPtr(1)},
	}}
	s := New(up)

	out, err := s.Upload(context.Background(), models.UploadBudgets, "b.csv", strings.NewReader("category,amount\n"))
	require.NoError(t, err)
	assert.True(t, out.Result.Success)
	assert.Equal(t, "Imported 2 rows", out.Result.Message)
	assert.Equal(t, 2, *out.Result.Inserted)
	assert.Equal(t, "category,amount\n", up.body)

	got, ok := s.Outcome(models.UploadBudgets)
	require.True(t, ok)
	assert.Equal(t, out, got)
}

func TestUploadSuccessFallbackMessage(t *testing.T) {
	s := New(&fakeUploader{resp: &api.UploadResponse{}})

	out, err := s.Upload(context.Background(), models.UploadGoals, "g.csv", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "File uploaded successfully!", out.Result.Message)
}

func TestUploadFailureMessages(t *testing.T) {
	s := New(&fakeUploader{err: &api.ServerError{StatusCode: http.StatusBadRequest, Message: "Missing column: amount"}})
	out, err := s.Upload(context.Background(), models.UploadTransactions, "t.csv", strings.NewReader("x"))
	require.Error(t, err)
	assert.False(t, out.Result.Success)
	assert.Equal(t, "Missing column: amount", out.Result.Message)

	s = New(&fakeUploader{err: &api.NetworkError{Op: "POST /api/data/upload/payments", Err: io.ErrUnexpectedEOF}})
	out, _ = s.Upload(context.Background(), models.UploadPayments, "p.csv", strings.NewReader("x"))
	assert.Equal(t, "Upload failed. Please try again.", out.Result.Message)
}

func TestUploadValidationNeverCallsServer(t *testing.T) {
	up := &fakeUploader{}
	s := New(up)

	out, err := s.Upload(context.Background(), models.UploadClients, "", nil)
	assert.True(t, api.IsValidation(err))
	assert.Equal(t, "Please select a file", out.Result.Message)

	_, err = s.Upload(context.Background(), models.UploadType("invoices"), "i.csv", strings.NewReader("x"))
	assert.True(t, api.IsValidation(err))

	assert.Equal(t, 0, up.calls)
	_, ok := s.Outcome(models.UploadType("invoices"))
	assert.False(t, ok)
}

func TestOutcomesAreReplacedPerType(t *testing.T) {
	up := &fakeUploader{err: &api.ServerError{StatusCode: http.StatusInternalServerError, Message: "boom"}}
	s := New(up)

	_, _ = s.Upload(context.Background(), models.UploadClients, "c.csv", strings.NewReader("x"))
	up.err = nil
	up.resp = &api.UploadResponse{Message: "ok"}
	_, _ = s.Upload(context.Background(), models.UploadEngagements, "e.csv", strings.NewReader("x"))

	all := s.Outcomes()
	require.Len(t, all, 2)
	assert.False(t, all[models.UploadClients].Result.Success)
	assert.True(t, all[models.UploadEngagements].Result.Success)

	// retrying clients replaces its outcome and leaves engagements alone
	_, err := s.Upload(context.Background(), models.UploadClients, "c2.csv", strings.NewReader("x"))
	require.NoError(t, err)
	got, _ := s.Outcome(models.UploadClients)
	assert.True(t, got.Result.Success)
	assert.Equal(t, "c2.csv", got.Filename)
	assert.Nil(t, got.Err)

	s.Reset()
	assert.Empty(t, s.Outcomes())
}
