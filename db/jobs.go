package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Job is a client-posted work item. ClientID is nullable: seed rows without
// an owner are excluded from the public feed.
type Job struct {
	ID          int       `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Budget      int       `db:"budget" json:"budget"`
	Description string    `db:"description" json:"description"`
	ClientID    *int      `db:"client_id" json:"clientId,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// JobWithProposalCount is a Job annotated for the client dashboard.
type JobWithProposalCount struct {
	Job
	ProposalCount int `db:"proposal_count" json:"proposalCount"`
}

func (s *Storage) CreateJob(ctx context.Context, j *Job) error {
	query := `
        INSERT INTO jobs (title, budget, description, client_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query, j.Title, j.Budget, j.Description, j.ClientID).
		Scan(&j.ID, &j.CreatedAt)
}

func (s *Storage) GetJob(ctx context.Context, id int) (*Job, error) {
	j := &Job{}
	query := `SELECT * FROM jobs WHERE id = $1`
	err := s.db.GetContext(ctx, j, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

// GetPublicJobs returns the freelancer-facing feed: owned jobs only,
// newest first.
func (s *Storage) GetPublicJobs(ctx context.Context) ([]Job, error) {
	jobs := []Job{}
	query := `
        SELECT * FROM jobs
        WHERE client_id IS NOT NULL
        ORDER BY id DESC`
	err := s.db.SelectContext(ctx, &jobs, query)
	return jobs, err
}

func (s *Storage) GetClientJobs(ctx context.Context, clientID int) ([]JobWithProposalCount, error) {
	jobs := []JobWithProposalCount{}
	query := `
        SELECT j.id, j.title, j.budget, j.description, j.client_id, j.created_at,
               COUNT(p.id) AS proposal_count
        FROM jobs j
        LEFT JOIN proposals p ON p.job_id = j.id
        WHERE j.client_id = $1
        GROUP BY j.id
        ORDER BY j.id DESC`
	err := s.db.SelectContext(ctx, &jobs, query, clientID)
	return jobs, err
}

func (s *Storage) UpdateJob(ctx context.Context, j *Job) error {
	query := `
        UPDATE jobs
        SET title = $1, budget = $2, description = $3
        WHERE id = $4`
	_, err := s.db.ExecContext(ctx, query, j.Title, j.Budget, j.Description, j.ID)
	return err
}

func (s *Storage) DeleteJob(ctx context.Context, id int) error {
	// Proposals and assignments cascade.
	query := `DELETE FROM jobs WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// IsJobOwner is the ownership predicate every client-side job operation
// goes through.
func (s *Storage) IsJobOwner(ctx context.Context, userID, jobID int) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM jobs WHERE id = $1 AND client_id = $2`
	err := s.db.GetContext(ctx, &count, query, jobID, userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
