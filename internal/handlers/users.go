package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jayjaytrn/refund-desk/internal/auth"
	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/models"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var credentials models.Credentials

	if !h.decodeJSON(w, r, &credentials) {
		return
	}

	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(credentials.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Logger.Infow("password encryption error", "error", err)
		writeMessage(w, http.StatusBadRequest, "password cannot be used")
		return
	}

	userData := models.User{
		UUID:     uuid.New().String(),
		Login:    credentials.Login,
		Name:     credentials.Name,
		Password: string(passwordBytes),
		Role:     h.roleFor(credentials.Login),
	}
	if userData.Name == "" {
		userData.Name = credentials.Login
	}

	if err = h.Database.PutUniqueUserData(r.Context(), userData); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			h.Logger.Debugw("login already exists", "login", userData.Login)
			writeMessage(w, http.StatusConflict, "login already exists")
			return
		}
		h.Logger.Errorw("error when trying to put credentials to database", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.Logger.Infow("user registered", "userID", userData.UUID, "role", userData.Role)
	h.issueToken(w, userData)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials models.Credentials

	if !h.decodeJSON(w, r, &credentials) {
		return
	}

	userData, err := h.Database.GetUserData(r.Context(), credentials.Login)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, "invalid login or password")
			return
		}
		h.Logger.Errorw("error reading user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(userData.Password), []byte(credentials.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	h.issueToken(w, userData)
}

func (h *Handler) issueToken(w http.ResponseWriter, user models.User) {
	identity := models.Identity{
		UserID: user.UUID,
		Name:   user.Name,
		Email:  user.Login,
		Role:   user.Role,
	}

	token, err := auth.BuildJWT(h.Config.JWTSecret, identity)
	if err != nil {
		h.Logger.Errorw("error building JWT", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	writeJSON(w, http.StatusOK, models.AuthResponse{Success: true, Token: token, User: identity})
}

func (h *Handler) roleFor(login string) models.Role {
	for _, admin := range h.Config.AdminLogins {
		if strings.EqualFold(strings.TrimSpace(admin), login) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}
