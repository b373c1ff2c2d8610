package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saferent-network/saferent/internal/app/certify"
	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/observability"
)

// ─── Submissions ────────────────────────────────────────────────────────────

type submitRequest struct {
	StudentID string `json:"student_id"`
	Income    int    `json:"income"`
	Guarantor int    `json:"guarantor"`
	History   int    `json:"history"`
}

// handleSubmit enqueues a score submission for validation.
// POST /api/submissions
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var in submitRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.StudentID == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	req, err := s.requests.Submit(domain.ScoreSubmission{
		StudentID: in.StudentID,
		Income:    in.Income,
		Guarantor: in.Guarantor,
		History:   in.History,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidProfile):
		observability.SubmissionsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrDuplicateSubmission):
		observability.SubmissionsTotal.WithLabelValues("duplicate").Inc()
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	observability.SubmissionsTotal.WithLabelValues("queued").Inc()
	s.refreshPendingGauge()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"request_id": req.ID,
		"score":      req.Score.Value,
		"band":       req.Score.Band,
	})
}

// ─── Validator Decisions ────────────────────────────────────────────────────

// handleListRequests returns the pending queue for the validator.
// GET /api/requests
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Authorized(credential(r)) {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	list, err := s.requests.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.PendingRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": list,
		"count":   len(list),
	})
}

// handleAccept enacts an accept decision.
// POST /api/requests/{studentID}/accept
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	block, err := s.engine.Accept(credential(r), studentID)
	if err != nil {
		s.writeDecisionError(w, err)
		return
	}
	s.refreshPendingGauge()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": domain.OutcomeAccepted,
		"block":   block,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// handleReject enacts a reject decision.
// POST /api/requests/{studentID}/reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	var in rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Reason == "" {
		writeError(w, http.StatusBadRequest, "a rejection reason is required")
		return
	}

	if err := s.engine.Reject(credential(r), studentID, in.Reason); err != nil {
		s.writeDecisionError(w, err)
		return
	}
	s.refreshPendingGauge()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": domain.OutcomeRejected,
		"reason":  in.Reason,
	})
}

func (s *Server) writeDecisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "no pending request for this student")
	case errors.Is(err, domain.ErrSigningUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) refreshPendingGauge() {
	if list, err := s.requests.List(); err == nil {
		observability.PendingRequests.Set(float64(len(list)))
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

// handleNotification returns a student's latest decision outcome.
// GET /api/notifications/{studentID}
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	rec, err := s.notices.Latest(studentID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no decision yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDismissNotification clears a student's notification.
// DELETE /api/notifications/{studentID}
func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notices.Clear(chi.URLParam(r, "studentID")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Certificates ───────────────────────────────────────────────────────────

// handleCertificate issues a certificate for a student's latest
// accepted score, plus the encoded payload the UI renders as a code.
// GET /api/certificates/{studentID}
func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	cert, err := s.issuer.Issue(studentID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no certified score for this student")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload, err := certify.Encode(cert)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"certificate": cert,
		"payload":     payload,
	})
}

// ─── Verification ───────────────────────────────────────────────────────────

type verifyRequest struct {
	// Either the raw scanned payload...
	Payload string `json:"payload,omitempty"`
	// ...or the already-decoded certificate fields.
	Certificate *domain.Certificate `json:"certificate,omitempty"`
}

// handleVerify verifies a scanned certificate for a relying party.
// POST /api/verify
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var in verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var verdict domain.Verdict
	switch {
	case in.Payload != "":
		verdict = s.verifier.VerifyPayload(in.Payload)
	case in.Certificate != nil:
		verdict = s.verifier.Verify(*in.Certificate)
	default:
		writeError(w, http.StatusBadRequest, "payload or certificate is required")
		return
	}

	// An invalid certificate is a successful verification with a
	// negative verdict, not an HTTP error.
	writeJSON(w, http.StatusOK, verdict)
}

// ─── Ledger Transparency ────────────────────────────────────────────────────

// handleChain returns the whole ledger for the explorer view.
// GET /api/chain
func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	blocks, err := s.chain.Blocks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"blocks":     blocks,
		"length":     len(blocks),
		"validator":  s.chain.Validator(),
		"public_key": s.chain.PublicKeyHex(),
	})
}

// handleChainAudit re-checks chain integrity end to end.
// GET /api/chain/verify
func (s *Server) handleChainAudit(w http.ResponseWriter, r *http.Request) {
	err := s.chain.VerifyChain()
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"intact": true})
		return
	}

	var corrupt *domain.CorruptionError
	if errors.As(err, &corrupt) {
		// An audit alarm, not an internal error: report the break point.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"intact":          false,
			"broken_at_index": corrupt.Index,
			"reason":          corrupt.Reason,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
