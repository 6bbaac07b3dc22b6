package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"nexgig/db"
)

type proposalRequest struct {
	CoverLetter       string `json:"coverLetter"`
	ExpectedRate      string `json:"expectedRate"`
	Timeline          string `json:"timeline"`
	AdditionalDetails string `json:"additionalDetails"`
}

// SubmitProposalHandler handles POST /api/jobs/{jobId}/proposals.
// The (job, freelancer) uniqueness is enforced by the store, so a lost
// race surfaces here as a duplicate, not as a second row.
func (h *Handler) SubmitProposalHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, db.RoleFreelancer)
	if !ok {
		return
	}

	jobID, err := urlID(r, "jobId")
	if err != nil {
		writeError(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req proposalRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	proposal := &db.Proposal{
		JobID:             jobID,
		FreelancerID:      id.UserID,
		CoverLetter:       req.CoverLetter,
		ExpectedRate:      req.ExpectedRate,
		Timeline:          req.Timeline,
		AdditionalDetails: req.AdditionalDetails,
	}
	if err := h.Store.CreateProposal(r.Context(), proposal); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeError(w, "Already applied", http.StatusConflict)
			return
		}
		writeError(w, "Failed to submit proposal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"proposalId": proposal.ID})
}

// GetMyProposalsHandler handles GET /api/jobs/proposals/my: the calling
// freelancer's proposals joined with their jobs, most recent first.
func (h *Handler) GetMyProposalsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, db.RoleFreelancer)
	if !ok {
		return
	}

	proposals, err := h.Store.GetFreelancerProposals(r.Context(), id.UserID)
	if err != nil {
		writeError(w, "Failed to fetch proposals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"proposals": proposals})
}

// GetJobProposalsHandler handles GET /api/jobs/{jobId}/proposals; only the
// owning client may see a job's proposals.
func (h *Handler) GetJobProposalsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, db.RoleClient)
	if !ok {
		return
	}

	jobID, err := urlID(r, "jobId")
	if err != nil {
		writeError(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	owner, err := h.Store.IsJobOwner(r.Context(), id.UserID, jobID)
	if err != nil {
		writeError(w, "Failed to fetch proposals", http.StatusInternalServerError)
		return
	}
	if !owner {
		writeError(w, "Forbidden", http.StatusForbidden)
		return
	}

	proposals, err := h.Store.GetJobProposals(r.Context(), jobID)
	if err != nil {
		writeError(w, "Failed to fetch proposals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"proposals": proposals})
}

// decideProposal shares the authorization path of accept and reject:
// resolve proposal -> job -> owning client, then run the transition.
func (h *Handler) decideProposal(w http.ResponseWriter, r *http.Request,
	decide func(r *http.Request, proposalID int) error) {

	id, ok := h.identity(w, r, db.RoleClient)
	if !ok {
		return
	}

	proposalID, err := urlID(r, "proposalId")
	if err != nil {
		writeError(w, "Invalid proposal ID", http.StatusBadRequest)
		return
	}

	ownerID, err := h.Store.GetProposalJobOwner(r.Context(), proposalID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, "Proposal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "Failed to update proposal", http.StatusInternalServerError)
		return
	}
	if ownerID != id.UserID {
		writeError(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := decide(r, proposalID); err != nil {
		if errors.Is(err, db.ErrAlreadyDecided) {
			writeError(w, "Proposal already decided", http.StatusConflict)
			return
		}
		writeError(w, "Failed to update proposal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AcceptProposalHandler handles PATCH /api/jobs/proposals/{proposalId}/accept.
// Acceptance creates the assignment in the same store transaction.
func (h *Handler) AcceptProposalHandler(w http.ResponseWriter, r *http.Request) {
	h.decideProposal(w, r, func(r *http.Request, proposalID int) error {
		return h.Store.AcceptProposal(r.Context(), proposalID)
	})
}

// RejectProposalHandler handles PATCH /api/jobs/proposals/{proposalId}/reject.
func (h *Handler) RejectProposalHandler(w http.ResponseWriter, r *http.Request) {
	h.decideProposal(w, r, func(r *http.Request, proposalID int) error {
		return h.Store.RejectProposal(r.Context(), proposalID)
	})
}
