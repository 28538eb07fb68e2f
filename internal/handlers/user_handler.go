package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/auth"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/middleware"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

type UserHandler struct {
	repo    database.Repository
	tokens  *auth.Tokens
	log     *zap.Logger
	timeout time.Duration
	secure  bool
}

// NewUserHandler builds the account handlers. secure marks the session
// cookie HTTPS-only.
func NewUserHandler(repo database.Repository, tokens *auth.Tokens, log *zap.Logger, timeout time.Duration, secure bool) *UserHandler {
	return &UserHandler{repo: repo, tokens: tokens, log: log, timeout: timeout, secure: secure}
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signin checks the credentials and sets the session cookie.
func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var credentials signinRequest
	if !decodeAndValidate(w, r, &credentials) {
		return
	}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	user, err := h.repo.FindUserByEmail(ctx, strings.ToLower(credentials.Email))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.log.Error("find user", zap.String(logger.FieldOperation, "signin"), zap.Error(err))
			http.Error(w, "Failed to sign in", http.StatusInternalServerError)
			return
		}
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password)); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.GenerateJWT(user.ID, string(user.Role))
	if err != nil {
		h.log.Error("generate token", zap.String(logger.FieldOperation, "signin"), zap.Error(err))
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Expires:  time.Now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/api",
	})

	writeJSON(w, http.StatusOK, user)
}

// Signout clears the session cookie.
func (h *UserHandler) Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		Path:     "/api",
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	users, err := h.repo.ListUsers(ctx)
	if err != nil {
		h.log.Error("list users", zap.String(logger.FieldOperation, "get_users"), zap.Error(err))
		http.Error(w, "Failed to fetch users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin staff"`
}

// CreateUser adds an admin or staff account.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	email := strings.ToLower(req.Email)
	_, err := h.repo.FindUserByEmail(ctx, email)
	if err == nil {
		http.Error(w, "Email already exists", http.StatusConflict)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.log.Error("find user", zap.String(logger.FieldOperation, "create_user"), zap.Error(err))
		http.Error(w, "Failed to check email availability", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.UserRole(req.Role),
	}
	err = h.repo.CreateUser(ctx, &user)
	if errors.Is(err, database.ErrDuplicate) {
		http.Error(w, "Email already exists", http.StatusConflict)
		return
	} else if err != nil {
		h.log.Error("create user", zap.String(logger.FieldOperation, "create_user"), zap.Error(err))
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
