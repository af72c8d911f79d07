// Package submit is the submission boundary: it hands completed applications
// and the contact/subscribe payloads to their external webhooks.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"careerflow/internal/application/form"
	"careerflow/internal/application/wizard"
	httpclient "careerflow/internal/common/http"
	"careerflow/internal/common/logger"
)

// HeaderSubmissionID correlates one attempt with downstream processing.
const HeaderSubmissionID = "X-Submission-ID"

// Webhook posts the whole application as multipart/form-data, once per call.
type Webhook struct {
	url    string
	client *httpclient.Client
	logger logger.Logger
}

func NewWebhook(url string, client *httpclient.Client, log logger.Logger) *Webhook {
	return &Webhook{
		url:    url,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "webhook"}),
	}
}

var _ wizard.Submitter = (*Webhook)(nil)

// Submit sends one request. Any 2xx response is success; everything else,
// including a timeout, is returned as an error without retrying.
func (h *Webhook) Submit(ctx context.Context, sub wizard.Submission) error {
	body, contentType, err := EncodeMultipart(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, body)
	if err != nil {
		return fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(HeaderSubmissionID, sub.ID)

	h.logger.Debug("Posting application to webhook", map[string]interface{}{
		"submissionId": sub.ID,
		"sessionId":    sub.SessionID,
		"bytes":        body.Len(),
	})

	if err := h.client.Send(ctx, req); err != nil {
		return fmt.Errorf("webhook %s: %w", h.url, err)
	}
	return nil
}

type textField struct {
	name  string
	value string
}

func scalarFields(fd *form.FormData) []textField {
	return []textField{
		{form.FieldFirstName, fd.FirstName},
		{form.FieldLastName, fd.LastName},
		{form.FieldEmail, fd.Email},
		{form.FieldPhone, fd.Phone},
		{form.FieldAddress, fd.Address},
		{form.FieldCity, fd.City},
		{form.FieldState, fd.State},
		{form.FieldZipCode, fd.ZipCode},
		{form.FieldCurrentPosition, fd.CurrentPosition},
		{form.FieldCurrentCompany, fd.CurrentCompany},
		{form.FieldYearsExperience, fd.YearsExperience},
		{form.FieldEducation, fd.Education},
		{form.FieldAvailableStartDate, fd.AvailableStartDate},
		{form.FieldSalaryExpectation, fd.SalaryExpectation},
		{form.FieldAdditionalInfo, fd.AdditionalInfo},
	}
}

// EncodeMultipart lays out the submission the way the webhook expects it:
// scalar fields as text parts, lists as JSON arrays, documents as file parts.
func EncodeMultipart(sub wizard.Submission) (*bytes.Buffer, string, error) {
	fd := sub.Data
	if fd == nil {
		fd = form.New()
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for _, f := range scalarFields(fd) {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if sub.JobID != "" {
		if err := mw.WriteField("jobId", sub.JobID); err != nil {
			return nil, "", err
		}
	}

	for _, l := range []struct {
		name string
		list []string
	}{
		{form.FieldSkills, fd.Skills},
		{form.FieldCertifications, fd.Certifications},
	} {
		list := l.list
		if list == nil {
			list = []string{}
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return nil, "", err
		}
		if err := mw.WriteField(l.name, string(raw)); err != nil {
			return nil, "", err
		}
	}

	for _, doc := range []struct {
		field string
		file  *form.File
	}{
		{form.FieldResume, fd.Resume},
		{form.FieldCoverLetter, fd.CoverLetter},
		{form.FieldPortfolio, fd.Portfolio},
	} {
		if doc.file == nil {
			continue
		}
		if err := writeFile(mw, doc.field, doc.file); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, field string, f *form.File) error {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}
