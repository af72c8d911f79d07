package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"careerflow/internal/application/form"
	"careerflow/internal/application/upload"
	apperrors "careerflow/internal/common/errors"
	"careerflow/internal/common/validation"
)

const (
	headerFileName = "X-File-Name"

	bytesPerMB = 1 << 20
	// multipart framing allowance on top of the slot limit
	multipartOverhead = 1 << 20
)

type startRequest struct {
	JobID string `json:"jobId"`
}

type skillRequest struct {
	Skill string `json:"skill"`
}

type certificationRequest struct {
	Certification string `json:"certification"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, s.cfg.MaxPatchBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.errorResponse(w, r, apperrors.NewValidationError("invalid JSON body"))
			return
		}
	}
	if req.JobID == "" {
		req.JobID = r.URL.Query().Get("jobId")
	}

	view, err := s.apps.Start(r.Context(), req.JobID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/applications/"+view.ID)
	s.jsonResponse(w, http.StatusCreated, view)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.apps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxPatchBodyBytes))
	if err != nil {
		s.errorResponse(w, r, apperrors.NewValidationError("failed to read body"))
		return
	}
	patch, err := validation.ValidatePatch(raw)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			s.errorResponse(w, r, apperrors.NewValidationError(verr.Error()))
			return
		}
		s.errorResponse(w, r, err)
		return
	}

	view, err := s.apps.Patch(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.apps.Abandon(r.Context(), r.PathValue("id")); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.cfg.MaxPatchBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, r, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	view, err := s.apps.AddSkill(r.Context(), r.PathValue("id"), req.Skill)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleRemoveSkill(w http.ResponseWriter, r *http.Request) {
	view, err := s.apps.RemoveSkill(r.Context(), r.PathValue("id"), r.PathValue("skill"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleAddCertification(w http.ResponseWriter, r *http.Request) {
	var req certificationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.cfg.MaxPatchBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, r, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	view, err := s.apps.AddCertification(r.Context(), r.PathValue("id"), req.Certification)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleRemoveCertification(w http.ResponseWriter, r *http.Request) {
	view, err := s.apps.RemoveCertification(r.Context(), r.PathValue("id"), r.PathValue("certification"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	view, err := s.apps.Next(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	view, err := s.apps.Prev(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// handleBrowseUpload accepts a multipart form with a single "file" part.
func (s *Server) handleBrowseUpload(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.slot(w, r)
	if !ok {
		return
	}
	limit := int64(slot.MaxSizeMB) * bytesPerMB
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.errorResponse(w, r, tooLarge(slot))
			return
		}
		s.errorResponse(w, r, apperrors.NewValidationError("expected multipart/form-data with a file part"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	part, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, r, apperrors.NewValidationError("missing file part"))
		return
	}
	defer part.Close()

	file := &form.File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}
	if header.Size <= limit {
		if file.Data, err = io.ReadAll(part); err != nil {
			s.errorResponse(w, r, apperrors.NewValidationError("failed to read file"))
			return
		}
	}
	s.upload(w, r, slot.Field, file)
}

// handleDropUpload accepts the raw file as the body; the name comes from the
// X-File-Name header.
func (s *Server) handleDropUpload(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.slot(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.Header.Get(headerFileName))
	if name == "" {
		s.errorResponse(w, r, apperrors.NewValidationError(headerFileName+" header is required"))
		return
	}
	limit := int64(slot.MaxSizeMB) * bytesPerMB

	file := &form.File{Name: name, ContentType: r.Header.Get("Content-Type")}
	if r.ContentLength > limit {
		file.Size = r.ContentLength
		s.upload(w, r, slot.Field, file)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		s.errorResponse(w, r, apperrors.NewValidationError("failed to read file"))
		return
	}
	file.Size = int64(len(data))
	if file.Size <= limit {
		file.Data = data
	}
	s.upload(w, r, slot.Field, file)
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	view, err := s.apps.RemoveDocument(r.Context(), r.PathValue("id"), r.PathValue("slot"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.apps.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.Header().Set("Location", res.Redirect)
	s.jsonResponse(w, http.StatusOK, res)
}

// handleStepSubmit is the Submit button of a step. Only the review step has one.
func (s *Server) handleStepSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("step")
	if step, ok := form.ParseStep(name); !ok || step != form.StepReview {
		s.errorResponse(w, r, apperrors.NewResourceNotFoundError("Step action", name+"/submit"))
		return
	}
	s.handleSubmit(w, r)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := s.apps.Jobs(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.apps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) slot(w http.ResponseWriter, r *http.Request) (upload.Slot, bool) {
	name := r.PathValue("slot")
	slot, ok := upload.SlotFor(name)
	if !ok {
		s.errorResponse(w, r, apperrors.NewResourceNotFoundError("Document slot", name))
		return upload.Slot{}, false
	}
	return slot, true
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, field string, file *form.File) {
	view, err := s.apps.Upload(r.Context(), r.PathValue("id"), field, file)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func tooLarge(slot upload.Slot) error {
	c := slot.Control(nil)
	err := c.Validate(&form.File{Name: "oversized", Size: int64(slot.MaxSizeMB)*bytesPerMB + 1})
	var rejected *upload.RejectedError
	if errors.As(err, &rejected) {
		return apperrors.NewFileRejectedError(apperrors.ErrCodeFileTooLarge, rejected.Message)
	}
	return apperrors.NewFileRejectedError(apperrors.ErrCodeFileTooLarge, "File too large")
}
