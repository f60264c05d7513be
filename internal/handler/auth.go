package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

type registerRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         int    `json:"role" validate:"omitempty,min=1,max=4"`
	ReferralCode string `json:"referralCode"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type userView struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	Role         int             `json:"role"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Phone        string          `json:"phone"`
	Address      user.Address    `json:"address"`
	AvatarURL    string          `json:"avatarUrl"`
	ReferralCode string          `json:"referralCode"`
	Points       decimal.Decimal `json:"points"`
	JoinDate     time.Time       `json:"joinDate"`
}

type sessionView struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func viewUser(u *user.User) userView {
	return userView{
		ID:           u.ID,
		Email:        u.Email,
		Role:         int(u.Role),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Address:      u.Address,
		AvatarURL:    u.AvatarURL,
		ReferralCode: u.ReferralCode,
		Points:       u.Points,
		JoinDate:     u.JoinDate,
	}
}

// register creates an account. An explicit elevated role is honoured only
// when the caller holds an Administrator session.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	var callerRole user.Role
	if raw := tokenFromRequest(r); raw != "" {
		if id, err := h.parseToken(raw); err == nil {
			callerRole = id.Role
		}
	}

	u, err := h.users.Register(r.Context(), user.RegisterRequest{
		Email:        req.Email,
		Password:     req.Password,
		Role:         user.Role(req.Role),
		CallerRole:   callerRole,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.issueToken(u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, token, h.tokens.TTL)
	h.writeJSON(w, r, http.StatusCreated, sessionView{Token: token, User: viewUser(u)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.issueToken(u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, token, h.tokens.TTL)
	h.writeJSON(w, r, http.StatusOK, sessionView{Token: token, User: viewUser(u)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	u, err := h.userRepo.GetByID(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewUser(u))
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, _ := identityFrom(r.Context())
	if err := h.users.ChangePassword(r.Context(), id.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
