package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hobbyden/store/internal/api/middleware"
	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/service"
)

// AccountService is the accounts surface as the HTTP layer sees it.
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Get(ctx context.Context, actor *models.User, id int64) (*models.User, error)
	List(ctx context.Context, actor *models.User) ([]models.User, error)
	UpdateProfile(ctx context.Context, actor *models.User, id int64, in service.ProfileInput) (*models.User, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type UserHandler struct {
	svc    AccountService
	logger *zap.Logger
}

func NewUserHandler(svc AccountService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"` // YYYY-MM-DD
}

// profileRequest is a partial update; absent fields stay as they are.
type profileRequest struct {
	Phone    *string `json:"phone"`
	Birthday *string `json:"birthday"`
}

func parseBirthday(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	birthday, ok := parseBirthday(req.Birthday)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid birthday; use YYYY-MM-DD"})
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Birthday:  birthday,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// List handles GET /users (staff only).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /users/{id} (owner or staff).
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	user, err := h.svc.Get(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PATCH /users/{id} (owner or staff).
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	in := service.ProfileInput{Phone: req.Phone}
	if req.Birthday != nil {
		birthday, ok := parseBirthday(*req.Birthday)
		if !ok || birthday == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid birthday; use YYYY-MM-DD"})
			return
		}
		in.Birthday = birthday
	}

	user, err := h.svc.UpdateProfile(r.Context(), middleware.UserFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{id} (staff only).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
