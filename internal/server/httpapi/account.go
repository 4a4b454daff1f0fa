package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/rustytech/internal/server/services"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	res, err := s.svc.Accounts.Register(r.Context(), req)
	s.respond(w, r, res, err)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	res, err := s.svc.Accounts.Login(r.Context(), req)
	s.respond(w, r, res, err)
}

// verifyEmail takes the token from the query string or a {"token": ...} body.
func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" && r.Method == http.MethodPost {
		var body struct {
			Token string `json:"token"`
		}
		if err := decodeJSON(r, &body); err == nil {
			token = body.Token
		}
	}
	res, err := s.svc.Accounts.VerifyEmail(r.Context(), token)
	s.respond(w, r, res, err)
}

func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Accounts.VerifyToken(bearerToken(r)))
}

func (s *Server) resendEmail(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Accounts.ResendEmail(r.Context(), r.URL.Query().Get("email"))
	s.respond(w, r, res, err)
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Accounts.ForgotPassword(r.Context(), r.URL.Query().Get("email"))
	s.respond(w, r, res, err)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req services.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	res, err := s.svc.Accounts.ResetPassword(r.Context(), req)
	s.respond(w, r, res, err)
}

// updateUser always edits the caller; a userId in the body is ignored.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	req.UserID = callerID(r)
	res, err := s.svc.Accounts.UpdateUser(r.Context(), req)
	s.respond(w, r, res, err)
}

func (s *Server) enableTwoFactor(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Accounts.EnableTwoFactor(r.Context(), callerID(r))
	s.respond(w, r, res, err)
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Accounts.GetInfo(r.Context(), callerID(r))
	s.respond(w, r, res, err)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Accounts.Logout(r.Context(), callerID(r))
	s.respond(w, r, res, err)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &body); err != nil || body.RefreshToken == "" {
		badJSON(w)
		return
	}
	pair, err := s.svc.Accounts.RefreshToken(r.Context(), body.RefreshToken)
	s.respond(w, r, pair, err)
}
