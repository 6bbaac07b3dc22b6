package db

import "context"

// OverviewStats backs the dashboard header. TotalSpent and
// AvgResponseHours are placeholders the payment mock never fills in.
type OverviewStats struct {
	ActiveJobs       int `json:"activeJobs"`
	TotalSpent       int `json:"totalSpent"`
	ActiveProposals  int `json:"activeProposals"`
	AvgResponseHours int `json:"avgResponseHours"`
	MessagesCount    int `json:"messagesCount"`
}

type Overview struct {
	Stats          OverviewStats
	RecentJobs     []Job
	RecentMessages []ChatPreview
}

// GetOverview assembles the dashboard for one user: counts, the five most
// recent owned jobs, and the three most recent chat previews.
func (s *Storage) GetOverview(ctx context.Context, userID int) (*Overview, error) {
	o := &Overview{}

	query := `SELECT COUNT(1) FROM jobs WHERE client_id = $1`
	if err := s.db.GetContext(ctx, &o.Stats.ActiveJobs, query, userID); err != nil {
		return nil, err
	}

	query = `
        SELECT COUNT(1)
        FROM messages m
        WHERE m.sender_id = $1 OR m.chat_id IN (
            SELECT chat_id FROM chat_participants WHERE user_id = $1
        )`
	if err := s.db.GetContext(ctx, &o.Stats.MessagesCount, query, userID); err != nil {
		return nil, err
	}

	query = `
        SELECT COUNT(p.id)
        FROM proposals p
        JOIN jobs j ON p.job_id = j.id
        WHERE j.client_id = $1`
	if err := s.db.GetContext(ctx, &o.Stats.ActiveProposals, query, userID); err != nil {
		return nil, err
	}

	o.RecentJobs = []Job{}
	query = `
        SELECT * FROM jobs
        WHERE client_id = $1
        ORDER BY id DESC
        LIMIT 5`
	if err := s.db.SelectContext(ctx, &o.RecentJobs, query, userID); err != nil {
		return nil, err
	}

	o.RecentMessages = []ChatPreview{}
	query = `
        SELECT ch.id,
               COALESCE(m.text, '') AS last_message,
               COALESCE(m.created_at, ch.updated_at) AS last_activity,
               m.id IS NOT NULL AS has_messages
        FROM chats ch
        JOIN chat_participants cp ON cp.chat_id = ch.id AND cp.user_id = $1
        LEFT JOIN LATERAL (
            SELECT id, text, created_at
            FROM messages
            WHERE chat_id = ch.id
            ORDER BY id DESC
            LIMIT 1
        ) m ON true
        ORDER BY (m.id IS NULL) ASC, last_activity DESC, ch.id DESC
        LIMIT 3`
	if err := s.db.SelectContext(ctx, &o.RecentMessages, query, userID); err != nil {
		return nil, err
	}
	return o, nil
}
