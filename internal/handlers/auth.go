package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode"

	"nexgig/db"
	"nexgig/internal/auth"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Role     string  `json:"role"`
}

func validateRegisterRequest(req *registerRequest) error {
	if !strings.Contains(req.Email, "@") {
		return errors.New("invalid email")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	switch req.Role {
	case "":
		req.Role = db.RoleFreelancer
	case db.RoleClient, db.RoleFreelancer:
	default:
		return errors.New("role must be 'client' or 'freelancer'")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return errors.New("password must contain lowercase, uppercase, number and special character")
	}
	return nil
}

// RegisterHandler handles POST /api/auth/register.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req registerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if err := validateRegisterRequest(&req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, "Failed to register", http.StatusInternalServerError)
		return
	}

	user := &db.User{Email: req.Email, PasswordHash: hash, Name: req.Name, Role: req.Role}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeError(w, "Email already registered for "+req.Role+" role", http.StatusConflict)
			return
		}
		writeError(w, "Failed to register", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginHandler handles POST /api/auth/login. When no role is given and the
// email holds accounts under both roles, the caller has to pick one.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, "Missing email or password", http.StatusBadRequest)
		return
	}
	if req.Role != "" && req.Role != db.RoleClient && req.Role != db.RoleFreelancer {
		writeError(w, "role must be 'client' or 'freelancer'", http.StatusBadRequest)
		return
	}

	users, err := h.Store.GetUsersByEmail(r.Context(), req.Email, req.Role)
	if err != nil {
		writeError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}
	if len(users) == 0 {
		writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if req.Role == "" && len(users) > 1 {
		roles := make([]map[string]string, 0, len(users))
		for _, u := range users {
			roles = append(roles, map[string]string{"role": u.Role})
		}
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":    "Multiple accounts found. Please specify role.",
			"accounts": roles,
		})
		return
	}

	user := users[0]
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.Sign(h.JWTSecret, user.ID, user.Email, user.Role)
	if err != nil {
		writeError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// MeHandler handles GET /api/auth/me. Token-optional: an absent or invalid
// token yields {"user": null}, never an error.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": nil})
		return
	}

	claims, err := auth.Parse(h.JWTSecret, token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": nil})
		return
	}

	user, err := h.Store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}
