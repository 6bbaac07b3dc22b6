package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"nexgig/db"

	"github.com/go-chi/chi/v5"
)

type jobRequest struct {
	Title       string `json:"title"`
	Budget      int    `json:"budget"`
	Description string `json:"description"`
}

func validateJobRequest(req *jobRequest) error {
	if req.Title == "" {
		return errors.New("title is required")
	}
	if req.Budget < 0 {
		return errors.New("budget must be non-negative")
	}
	if req.Description == "" {
		return errors.New("description is required")
	}
	return nil
}

// urlID parses a positive integer chi URL param.
func urlID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// GetPublicJobsHandler handles GET /api/jobs/public, the open feed.
func (h *Handler) GetPublicJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.GetPublicJobs(r.Context())
	if err != nil {
		writeError(w, "Failed to fetch jobs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// GetJobHandler handles GET /api/jobs/{jobId}.
func (h *Handler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID, err := urlID(r, "jobId")
	if err != nil {
		writeError(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	job, err := h.Store.GetJob(r.Context(), jobID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "Failed to fetch job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": job})
}

// GetClientJobsHandler handles GET /api/jobs/mine/list: jobs owned by the
// calling client, with per-job proposal counts.
func (h *Handler) GetClientJobsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, db.RoleClient)
	if !ok {
		return
	}

	jobs, err := h.Store.GetClientJobs(r.Context(), id.UserID)
	if err != nil {
		writeError(w, "Failed to fetch jobs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// CreateJobHandler handles POST /api/jobs.
func (h *Handler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, db.RoleClient)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req jobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := validateJobRequest(&req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	clientID := id.UserID
	job := &db.Job{Title: req.Title, Budget: req.Budget, Description: req.Description, ClientID: &clientID}
	if err := h.Store.CreateJob(r.Context(), job); err != nil {
		writeError(w, "Failed to create job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"job": job})
}

// UpdateJobHandler handles PATCH /api/jobs/{jobId}; owner only.
func (h *Handler) UpdateJobHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, db.RoleClient)
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

	var req jobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := validateJobRequest(&req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	owner, err := h.Store.IsJobOwner(r.Context(), id.UserID, jobID)
	if err != nil {
		writeError(w, "Failed to update job", http.StatusInternalServerError)
		return
	}
	if !owner {
		writeError(w, "Forbidden", http.StatusForbidden)
		return
	}

	job := &db.Job{ID: jobID, Title: req.Title, Budget: req.Budget, Description: req.Description}
	if err := h.Store.UpdateJob(r.Context(), job); err != nil {
		writeError(w, "Failed to update job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteJobHandler handles DELETE /api/jobs/{jobId}; owner only.
func (h *Handler) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, "Failed to delete job", http.StatusInternalServerError)
		return
	}
	if !owner {
		writeError(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.Store.DeleteJob(r.Context(), jobID); err != nil {
		writeError(w, "Failed to delete job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
