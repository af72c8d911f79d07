package api

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "careerflow/internal/common/errors"
	"careerflow/internal/models"
)

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg models.ContactMessage
	if err := json.NewDecoder(io.LimitReader(r.Body, s.cfg.MaxPatchBodyBytes)).Decode(&msg); err != nil {
		s.errorResponse(w, r, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	saved, err := s.outreach.Contact(r.Context(), msg)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]string{"status": "received", "id": saved.ID})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var sub models.Subscriber
	if err := json.NewDecoder(io.LimitReader(r.Body, s.cfg.MaxPatchBodyBytes)).Decode(&sub); err != nil {
		s.errorResponse(w, r, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	res, err := s.outreach.Subscribe(r.Context(), sub)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	s.jsonResponse(w, status, res)
}
