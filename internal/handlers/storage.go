package handlers

import (
	"context"

	"nexgig/db"
)

type StorageInterface interface {
	CreateUser(ctx context.Context, u *db.User) error
	GetUsersByEmail(ctx context.Context, email, role string) ([]db.User, error)
	GetUserByID(ctx context.Context, id int) (*db.User, error)

	CreateJob(ctx context.Context, j *db.Job) error
	GetJob(ctx context.Context, id int) (*db.Job, error)
	GetPublicJobs(ctx context.Context) ([]db.Job, error)
	GetClientJobs(ctx context.Context, clientID int) ([]db.JobWithProposalCount, error)
	UpdateJob(ctx context.Context, j *db.Job) error
	DeleteJob(ctx context.Context, id int) error
	IsJobOwner(ctx context.Context, userID, jobID int) (bool, error)

	CreateProposal(ctx context.Context, p *db.Proposal) error
	GetFreelancerProposals(ctx context.Context, freelancerID int) ([]db.ProposalWithJob, error)
	GetJobProposals(ctx context.Context, jobID int) ([]db.ProposalWithFreelancer, error)
	GetProposalJobOwner(ctx context.Context, proposalID int) (int, error)
	AcceptProposal(ctx context.Context, proposalID int) error
	RejectProposal(ctx context.Context, proposalID int) error

	GetUserChats(ctx context.Context, userID int) ([]db.ChatPreview, error)
	CreateOrGetDirectChat(ctx context.Context, userID, peerID int) (int, error)
	IsChatParticipant(ctx context.Context, userID, chatID int) (bool, error)
	GetChatMessages(ctx context.Context, chatID int) ([]db.Message, error)
	SendMessage(ctx context.Context, chatID, senderID int, text string) (*db.Message, error)

	GetOverview(ctx context.Context, userID int) (*db.Overview, error)
}
