package handlers_test

import (
	"context"
	"net/http"
	"sort"
	"time"

	"nexgig/db"
	"nexgig/internal/middleware"
)

// MockStorage implements StorageInterface with just enough in-memory state
// to observe the invariants: duplicate proposals, terminal statuses,
// assignment creation, chat membership and message ordering.
type MockStorage struct {
	users        map[int]*db.User
	usersByEmail []db.User
	createUserID int

	jobOwner      map[int]int // jobID -> owning client
	job           *db.Job
	publicJobs    []db.Job
	clientJobs    []db.JobWithProposalCount
	updatedJob    *db.Job
	deletedJobIDs []int

	proposals         []db.Proposal
	freelancerResults []db.ProposalWithJob
	jobResults        []db.ProposalWithFreelancer
	proposalJobOwner  map[int]int // proposalID -> owning client
	proposalJob       map[int][2]int
	statuses          map[int]string // proposalID -> status
	assignments       []db.Assignment

	participants map[int][]int // chatID -> userIDs
	messages     map[int][]db.Message
	chatBumped   map[int]time.Time
	nextMsgID    int64
	sendErr      error

	overview *db.Overview
}

func newMockStorage() *MockStorage {
	return &MockStorage{
		users:            map[int]*db.User{},
		jobOwner:         map[int]int{},
		proposalJobOwner: map[int]int{},
		proposalJob:      map[int][2]int{},
		statuses:         map[int]string{},
		participants:     map[int][]int{},
		messages:         map[int][]db.Message{},
		chatBumped:       map[int]time.Time{},
	}
}

func (m *MockStorage) CreateUser(ctx context.Context, u *db.User) error {
	for _, existing := range m.usersByEmail {
		if existing.Email == u.Email && existing.Role == u.Role {
			return db.ErrDuplicate
		}
	}
	m.createUserID++
	u.ID = m.createUserID
	u.CreatedAt = time.Now()
	m.usersByEmail = append(m.usersByEmail, *u)
	m.users[u.ID] = u
	return nil
}

func (m *MockStorage) GetUsersByEmail(ctx context.Context, email, role string) ([]db.User, error) {
	out := []db.User{}
	for _, u := range m.usersByEmail {
		if u.Email == email && (role == "" || u.Role == role) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockStorage) GetUserByID(ctx context.Context, id int) (*db.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

func (m *MockStorage) CreateJob(ctx context.Context, j *db.Job) error {
	j.ID = len(m.jobOwner) + 1
	j.CreatedAt = time.Now()
	if j.ClientID != nil {
		m.jobOwner[j.ID] = *j.ClientID
	}
	return nil
}

func (m *MockStorage) GetJob(ctx context.Context, id int) (*db.Job, error) {
	if m.job != nil && m.job.ID == id {
		return m.job, nil
	}
	return nil, db.ErrNotFound
}

func (m *MockStorage) GetPublicJobs(ctx context.Context) ([]db.Job, error) {
	return m.publicJobs, nil
}

func (m *MockStorage) GetClientJobs(ctx context.Context, clientID int) ([]db.JobWithProposalCount, error) {
	return m.clientJobs, nil
}

func (m *MockStorage) UpdateJob(ctx context.Context, j *db.Job) error {
	m.updatedJob = j
	return nil
}

func (m *MockStorage) DeleteJob(ctx context.Context, id int) error {
	m.deletedJobIDs = append(m.deletedJobIDs, id)
	return nil
}

func (m *MockStorage) IsJobOwner(ctx context.Context, userID, jobID int) (bool, error) {
	return m.jobOwner[jobID] == userID, nil
}

func (m *MockStorage) CreateProposal(ctx context.Context, p *db.Proposal) error {
	for _, existing := range m.proposals {
		if existing.JobID == p.JobID && existing.FreelancerID == p.FreelancerID {
			return db.ErrDuplicate
		}
	}
	p.ID = len(m.proposals) + 1
	p.Status = db.ProposalPending
	p.SubmittedAt = time.Now()
	m.proposals = append(m.proposals, *p)
	m.statuses[p.ID] = db.ProposalPending
	m.proposalJob[p.ID] = [2]int{p.JobID, p.FreelancerID}
	m.proposalJobOwner[p.ID] = m.jobOwner[p.JobID]
	return nil
}

func (m *MockStorage) GetFreelancerProposals(ctx context.Context, freelancerID int) ([]db.ProposalWithJob, error) {
	return m.freelancerResults, nil
}

func (m *MockStorage) GetJobProposals(ctx context.Context, jobID int) ([]db.ProposalWithFreelancer, error) {
	return m.jobResults, nil
}

func (m *MockStorage) GetProposalJobOwner(ctx context.Context, proposalID int) (int, error) {
	owner, ok := m.proposalJobOwner[proposalID]
	if !ok {
		return 0, db.ErrNotFound
	}
	return owner, nil
}

func (m *MockStorage) AcceptProposal(ctx context.Context, proposalID int) error {
	if m.statuses[proposalID] != db.ProposalPending {
		return db.ErrAlreadyDecided
	}
	m.statuses[proposalID] = db.ProposalAccepted
	ref := m.proposalJob[proposalID]
	m.assignments = append(m.assignments, db.Assignment{
		ID:           len(m.assignments) + 1,
		JobID:        ref[0],
		FreelancerID: ref[1],
		AssignedAt:   time.Now(),
	})
	return nil
}

func (m *MockStorage) RejectProposal(ctx context.Context, proposalID int) error {
	if m.statuses[proposalID] != db.ProposalPending {
		return db.ErrAlreadyDecided
	}
	m.statuses[proposalID] = db.ProposalRejected
	return nil
}

func (m *MockStorage) isParticipant(chatID, userID int) bool {
	for _, id := range m.participants[chatID] {
		if id == userID {
			return true
		}
	}
	return false
}

func (m *MockStorage) IsChatParticipant(ctx context.Context, userID, chatID int) (bool, error) {
	return m.isParticipant(chatID, userID), nil
}

func (m *MockStorage) GetUserChats(ctx context.Context, userID int) ([]db.ChatPreview, error) {
	previews := []db.ChatPreview{}
	for chatID := range m.participants {
		if !m.isParticipant(chatID, userID) {
			continue
		}
		p := db.ChatPreview{ID: chatID, LastActivity: m.chatBumped[chatID]}
		if msgs := m.messages[chatID]; len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			p.LastMessage = last.Text
			p.LastActivity = last.CreatedAt
			p.HasMessages = true
		}
		previews = append(previews, p)
	}
	sort.Slice(previews, func(i, j int) bool {
		a, b := previews[i], previews[j]
		if a.HasMessages != b.HasMessages {
			return a.HasMessages
		}
		if !a.LastActivity.Equal(b.LastActivity) {
			return a.LastActivity.After(b.LastActivity)
		}
		return a.ID > b.ID
	})
	return previews, nil
}

func (m *MockStorage) CreateOrGetDirectChat(ctx context.Context, userID, peerID int) (int, error) {
	for chatID, members := range m.participants {
		if len(members) == 2 && m.isParticipant(chatID, userID) && m.isParticipant(chatID, peerID) {
			return chatID, nil
		}
	}
	chatID := len(m.participants) + 1
	m.participants[chatID] = []int{userID, peerID}
	m.chatBumped[chatID] = time.Now()
	return chatID, nil
}

func (m *MockStorage) GetChatMessages(ctx context.Context, chatID int) ([]db.Message, error) {
	return m.messages[chatID], nil
}

func (m *MockStorage) SendMessage(ctx context.Context, chatID, senderID int, text string) (*db.Message, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.nextMsgID++
	// Strictly increasing timestamps keep the recency ordering unambiguous
	// even when calls land within the same wall-clock tick.
	msg := db.Message{
		ID:        m.nextMsgID,
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Unix(0, m.nextMsgID*int64(time.Millisecond)),
	}
	m.messages[chatID] = append(m.messages[chatID], msg)
	m.chatBumped[chatID] = msg.CreatedAt
	return &msg, nil
}

func (m *MockStorage) GetOverview(ctx context.Context, userID int) (*db.Overview, error) {
	if m.overview != nil {
		return m.overview, nil
	}
	return &db.Overview{RecentJobs: []db.Job{}, RecentMessages: []db.ChatPreview{}}, nil
}

// asUser attaches a verified identity to the request, standing in for the
// auth middleware.
func asUser(req *http.Request, userID int, role string) *http.Request {
	id := middleware.Identity{UserID: userID, Role: role}
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}
