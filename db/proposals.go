package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	ProposalPending     = "pending"
	ProposalUnderReview = "under_review"
	ProposalAccepted    = "accepted"
	ProposalRejected    = "rejected"
)

// Proposal is a freelancer's bid on a job. At most one per
// (job, freelancer) pair, enforced by a unique index.
type Proposal struct {
	ID                int       `db:"id" json:"id"`
	JobID             int       `db:"job_id" json:"jobId"`
	FreelancerID      int       `db:"freelancer_id" json:"freelancerId"`
	CoverLetter       string    `db:"cover_letter" json:"coverLetter"`
	ExpectedRate      string    `db:"expected_rate" json:"expectedRate"`
	Timeline          string    `db:"timeline" json:"timeline"`
	AdditionalDetails string    `db:"additional_details" json:"additionalDetails"`
	Status            string    `db:"status" json:"status"`
	SubmittedAt       time.Time `db:"submitted_at" json:"submittedAt"`
}

// ProposalWithJob is the freelancer's view: own proposal joined with the job.
type ProposalWithJob struct {
	Proposal
	Title          string `db:"title" json:"title"`
	Budget         int    `db:"budget" json:"budget"`
	JobDescription string `db:"description" json:"description"`
}

// ProposalWithFreelancer is the client's view of a proposal on an owned job.
type ProposalWithFreelancer struct {
	ID                int       `db:"id" json:"id"`
	CoverLetter       string    `db:"cover_letter" json:"coverLetter"`
	ExpectedRate      string    `db:"expected_rate" json:"expectedRate"`
	Timeline          string    `db:"timeline" json:"timeline"`
	AdditionalDetails string    `db:"additional_details" json:"additionalDetails"`
	Status            string    `db:"status" json:"status"`
	SubmittedAt       time.Time `db:"submitted_at" json:"submittedAt"`
	FreelancerID      int       `db:"freelancer_id" json:"freelancerId"`
	FreelancerName    string    `db:"freelancer_name" json:"freelancerName"`
}

// Assignment records an engaged freelancer; one row per acceptance.
type Assignment struct {
	ID           int       `db:"id" json:"id"`
	JobID        int       `db:"job_id" json:"jobId"`
	FreelancerID int       `db:"freelancer_id" json:"freelancerId"`
	AssignedAt   time.Time `db:"assigned_at" json:"assignedAt"`
}

// CreateProposal inserts with status pending. A second proposal from the
// same freelancer for the same job fails the unique index and comes back
// as ErrDuplicate; there is no advisory pre-check to race against.
func (s *Storage) CreateProposal(ctx context.Context, p *Proposal) error {
	query := `
        INSERT INTO proposals
            (job_id, freelancer_id, cover_letter, expected_rate, timeline, additional_details)
        VALUES
            ($1, $2, $3, $4, $5, $6)
        RETURNING id, status, submitted_at`
	err := s.db.QueryRowContext(ctx, query,
		p.JobID, p.FreelancerID, p.CoverLetter, p.ExpectedRate, p.Timeline, p.AdditionalDetails).
		Scan(&p.ID, &p.Status, &p.SubmittedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *Storage) GetFreelancerProposals(ctx context.Context, freelancerID int) ([]ProposalWithJob, error) {
	proposals := []ProposalWithJob{}
	query := `
        SELECT p.id, p.job_id, p.freelancer_id, p.cover_letter, p.expected_rate,
               p.timeline, p.additional_details, p.status, p.submitted_at,
               j.title, j.budget, j.description
        FROM proposals p
        JOIN jobs j ON p.job_id = j.id
        WHERE p.freelancer_id = $1
        ORDER BY p.submitted_at DESC`
	err := s.db.SelectContext(ctx, &proposals, query, freelancerID)
	return proposals, err
}

func (s *Storage) GetJobProposals(ctx context.Context, jobID int) ([]ProposalWithFreelancer, error) {
	proposals := []ProposalWithFreelancer{}
	query := `
        SELECT p.id, p.cover_letter, p.expected_rate, p.timeline,
               p.additional_details, p.status, p.submitted_at,
               u.id AS freelancer_id, COALESCE(u.name, u.email) AS freelancer_name
        FROM proposals p
        JOIN users u ON p.freelancer_id = u.id
        WHERE p.job_id = $1
        ORDER BY p.submitted_at DESC`
	err := s.db.SelectContext(ctx, &proposals, query, jobID)
	return proposals, err
}

// GetProposalJobOwner resolves proposal -> job -> owning client for the
// authorization check on accept/reject.
func (s *Storage) GetProposalJobOwner(ctx context.Context, proposalID int) (int, error) {
	var clientID sql.NullInt64
	query := `
        SELECT j.client_id
        FROM proposals p
        JOIN jobs j ON p.job_id = j.id
        WHERE p.id = $1`
	err := s.db.GetContext(ctx, &clientID, query, proposalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if !clientID.Valid {
		// Unowned seed job: nobody can decide its proposals.
		return 0, nil
	}
	return int(clientID.Int64), nil
}

// AcceptProposal flips a pending proposal to accepted and records the
// assignment in the same transaction. The conditional update makes
// terminal states immutable and keeps a concurrent double-accept from
// inserting two assignments: only one transaction sees the row flip.
func (s *Storage) AcceptProposal(ctx context.Context, proposalID int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var jobID, freelancerID int
	query := `
        UPDATE proposals SET status = $1
        WHERE id = $2 AND status = $3
        RETURNING job_id, freelancer_id`
	err = tx.QueryRowContext(ctx, query, ProposalAccepted, proposalID, ProposalPending).
		Scan(&jobID, &freelancerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAlreadyDecided
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (job_id, freelancer_id) VALUES ($1, $2)`,
		jobID, freelancerID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// RejectProposal flips a pending proposal to rejected. Single statement,
// same terminal-state rule as accept.
func (s *Storage) RejectProposal(ctx context.Context, proposalID int) error {
	query := `
        UPDATE proposals SET status = $1
        WHERE id = $2 AND status = $3`
	res, err := s.db.ExecContext(ctx, query, ProposalRejected, proposalID, ProposalPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyDecided
	}
	return nil
}
