package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Storage is the single gateway to the relational store. It is constructed
// once at startup and injected into the handlers.
type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate maps unique-constraint violations (duplicate proposal,
	// duplicate email+role registration).
	ErrDuplicate = errors.New("duplicate")
	// ErrAlreadyDecided is returned when accept/reject hits a proposal that
	// already left the pending state.
	ErrAlreadyDecided = errors.New("proposal already decided")
)

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

// User is one account. An email may register once per role, so a person
// acting as both client and freelancer holds two User records.
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         *string   `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

func (s *Storage) CreateUser(ctx context.Context, u *User) error {
	query := `
        INSERT INTO users (email, password_hash, name, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.Name, u.Role).
		Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUsersByEmail returns every account registered under email, optionally
// narrowed to one role. The same email may hold a client and a freelancer
// account, so login has to disambiguate.
func (s *Storage) GetUsersByEmail(ctx context.Context, email, role string) ([]User, error) {
	users := []User{}
	if role != "" {
		query := `SELECT * FROM users WHERE email = $1 AND role = $2`
		err := s.db.SelectContext(ctx, &users, query, email, role)
		return users, err
	}
	query := `SELECT * FROM users WHERE email = $1`
	err := s.db.SelectContext(ctx, &users, query, email)
	return users, err
}

func (s *Storage) GetUserByID(ctx context.Context, id int) (*User, error) {
	u := &User{}
	query := `SELECT * FROM users WHERE id = $1`
	err := s.db.GetContext(ctx, u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}
