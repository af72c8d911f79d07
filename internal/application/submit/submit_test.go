package submit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerflow/internal/application/form"
	"careerflow/internal/application/wizard"
	httpclient "careerflow/internal/common/http"
	"careerflow/internal/common/logger"
)

func sampleSubmission() wizard.Submission {
	fd := form.New()
	fd.FirstName = "Jane"
	fd.LastName = "Doe"
	fd.Email = "jane@x.com"
	fd.Phone = "5551234"
	fd.YearsExperience = "3-5"
	fd.Education = "master"
	fd.Skills = []string{"Go", "SQL"}
	fd.Resume = &form.File{Name: "cv.pdf", Size: 4, ContentType: "application/pdf", Data: []byte("%PDF")}
	fd.Portfolio = &form.File{Name: "work.zip", Size: 2, Data: []byte("PK")}
	return wizard.Submission{ID: "sub-1", SessionID: "sess-1", JobID: "job-9", Data: fd}
}

func TestWebhook_MultipartPayload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "sub-1", r.Header.Get(HeaderSubmissionID))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Jane", r.FormValue("firstName"))
		assert.Equal(t, "master", r.FormValue("education"))
		assert.Equal(t, "job-9", r.FormValue("jobId"))
		assert.Equal(t, "", r.FormValue("city"))

		var skills []string
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("skills")), &skills))
		assert.Equal(t, []string{"Go", "SQL"}, skills)
		assert.Equal(t, "[]", r.FormValue("certifications"))

		f, hdr, err := r.FormFile("resume")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "cv.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF", string(data))

		_, hdr, err = r.FormFile("portfolio")
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", hdr.Header.Get("Content-Type"))

		_, _, err = r.FormFile("coverLetter")
		assert.ErrorIs(t, err, http.ErrMissingFile)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewWebhook(srv.URL, httpclient.NewClient(time.Second), logger.NewTestLogger(t))
	require.NoError(t, h.Submit(context.Background(), sampleSubmission()))
	assert.EqualValues(t, 1, calls.Load())
}

func TestWebhook_StatusHandling(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"created is success", http.StatusCreated, false},
		{"no content is success", http.StatusNoContent, false},
		{"server error fails", http.StatusInternalServerError, true},
		{"bad request fails", http.StatusBadRequest, true},
		{"redirect is not success", http.StatusNotModified, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			h := NewWebhook(srv.URL, httpclient.NewClient(time.Second), logger.NewNoOpLogger())
			err := h.Submit(context.Background(), sampleSubmission())
			if tt.wantErr {
				assert.ErrorIs(t, err, httpclient.ErrUnexpectedStatus)
			} else {
				assert.NoError(t, err)
			}
			assert.EqualValues(t, 1, calls.Load(), "no retry")
		})
	}
}

func TestWebhook_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	h := NewWebhook(srv.URL, httpclient.NewClient(30*time.Millisecond), logger.NewNoOpLogger())
	err := h.Submit(context.Background(), sampleSubmission())
	require.Error(t, err)
	assert.True(t, httpclient.IsTimeout(err))
}

func TestWebhook_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := NewWebhook(url, httpclient.NewClient(time.Second), logger.NewNoOpLogger())
	assert.Error(t, h.Submit(context.Background(), sampleSubmission()))
}

func TestEncodeMultipart_NoJobID(t *testing.T) {
	sub := sampleSubmission()
	sub.JobID = ""
	body, ct, err := EncodeMultipart(sub)
	require.NoError(t, err)
	assert.Contains(t, ct, "multipart/form-data; boundary=")
	assert.NotContains(t, body.String(), `name="jobId"`)
}

func TestForwarder(t *testing.T) {
	t.Run("posts json with correlation id", func(t *testing.T) {
		var got map[string]string
		var id string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id = r.Header.Get(HeaderSubmissionID)
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		f := NewForwarder(srv.URL, httpclient.NewClient(time.Second))
		sent, err := f.Forward(context.Background(), map[string]string{"email": "a@b.com"})
		require.NoError(t, err)
		assert.Equal(t, sent, id)
		assert.Equal(t, "a@b.com", got["email"])
	})

	t.Run("unconfigured", func(t *testing.T) {
		f := NewForwarder("", httpclient.NewClient(time.Second))
		assert.False(t, f.Enabled())
		_, err := f.Forward(context.Background(), struct{}{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		_, err := NewForwarder(srv.URL, httpclient.NewClient(time.Second)).Forward(context.Background(), struct{}{})
		assert.ErrorIs(t, err, httpclient.ErrUnexpectedStatus)
	})
}
