package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"codesage/api/internal/apperr"
	"codesage/api/internal/model"
	"codesage/api/internal/repository"
	"codesage/api/internal/stream"
)

type submitCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type submissionResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Code         string `json:"code"`
	Language     string `json:"language"`
	ReviewResult string `json:"reviewResult"`
	SubmittedAt  string `json:"submittedAt"`
}

type historyResponse struct {
	Message     string               `json:"message"`
	CodeHistory []submissionResponse `json:"codeHistory"`
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userIDFromContext(r.Context())
	if userID == "" {
		s.writeError(w, r, apperr.New(apperr.Unauthenticated, "Unauthorized: user id missing."))
		return "", false
	}
	return userID, true
}

func (s *Server) handleSubmitCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req submitCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Language = strings.TrimSpace(req.Language)

	result := s.reviewer.Review(r.Context(), req.Code, req.Language)
	if !result.OK {
		s.writeError(w, r, result.Err)
		return
	}

	sub, err := s.submissions.CreateSubmission(r.Context(), model.Submission{
		UserID:       userID,
		Code:         req.Code,
		Language:     req.Language,
		ReviewResult: result.Text,
	})
	if err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not save submission.", err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	chunker := stream.NewChunker(result.Text, s.cfg.StreamChunkSize)
	n, err := stream.Pump(r.Context(), w, chunker, s.cfg.StreamChunkDelay)
	if err != nil {
		s.metrics.StreamAborted()
		s.log.Info(r.Context(), "review stream aborted", "submission_id", sub.ID, "chunks_sent", n, "error", err)
	}
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	subs, err := s.submissions.ListSubmissions(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not load code history.", err))
		return
	}

	resp := historyResponse{
		Message:     "Code history retrieved successfully.",
		CodeHistory: make([]submissionResponse, 0, len(subs)),
	}
	for _, sub := range subs {
		resp.CodeHistory = append(resp.CodeHistory, mapSubmission(sub))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	codeID := chi.URLParam(r, "codeId")

	if err := s.submissions.DeleteSubmission(r.Context(), userID, codeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.writeError(w, r, apperr.New(apperr.NotFound, "Code submission not found."))
			return
		}
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not delete code submission.", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Code submission deleted successfully."})
}

func (s *Server) handleDeleteAllHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	n, err := s.submissions.DeleteAllSubmissions(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not delete code history.", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "All code history deleted successfully.",
		"deleted": n,
	})
}

func mapSubmission(sub model.Submission) submissionResponse {
	return submissionResponse{
		ID:           sub.ID,
		UserID:       sub.UserID,
		Code:         sub.Code,
		Language:     sub.Language,
		ReviewResult: sub.ReviewResult,
		SubmittedAt:  sub.SubmittedAt.UTC().Format(time.RFC3339Nano),
	}
}
