package handlers

import (
	"net/http"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/middleware"
	"github.com/arenignacio/venus-bugtracker/internal/service"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

type AuthHTTP struct {
	svc   *service.AuthService
	users *service.UserService
	// secure marks the session cookie HTTPS-only.
	secure bool
}

func NewAuthHTTP(s *service.AuthService, users *service.UserService, secure bool) *AuthHTTP {
	return &AuthHTTP{svc: s, users: users, secure: secure}
}

// POST /user/login
// "login" may be an email or a username; "email" and "username" are accepted as aliases.
func (h *AuthHTTP) Login() http.HandlerFunc {
	type inDTO struct {
		Login    string `json:"login"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if !decode(w, r, &in, false) {
			return
		}
		login := in.Login
		if login == "" {
			login = in.Email
		}
		if login == "" {
			login = in.Username
		}

		token, u, err := h.svc.Login(r.Context(), login, in.Password)
		if err != nil {
			utils.Fail(w, err)
			return
		}
		middleware.SetSessionCookie(w, token, h.svc.TTL(), h.secure)
		utils.OK(w, http.StatusOK, "Successfully logged in", u)
	}
}

// GET /user/logout
func (h *AuthHTTP) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Logout(r.Context(), utils.SessionIDFrom(r.Context())); err != nil {
			utils.Fail(w, err)
			return
		}
		middleware.ClearSessionCookie(w)
		utils.OK(w, http.StatusOK, "Successfully logged out", nil)
	}
}

// GET /user/amIloggedIn
func (h *AuthHTTP) AmILoggedIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.OK(w, http.StatusOK, "", utils.ActorFrom(r.Context()) != nil)
	}
}

// GET /user/myinfo
func (h *AuthHTTP) MyInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := utils.ActorFrom(r.Context())
		if a == nil {
			utils.Error(w, http.StatusUnauthorized, apperr.KindUnauthorized, "Unauthorized user")
			return
		}
		u, err := h.users.Get(r.Context(), a.ID)
		if err != nil {
			utils.Fail(w, err)
			return
		}
		utils.OK(w, http.StatusOK, "", u)
	}
}
