package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
)

func (s *Server) spotifyAuthorization(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.Spotify.AuthorizationURL(r.Context(), callerID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

// spotifyCallback is reached by the browser coming back from the consent
// page, so it carries no bearer token. The user is recovered from state.
func (s *Server) spotifyCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeJSON(w, http.StatusBadRequest, services.ResponseBase{IsSuccess: false, Message: e})
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" && r.Method == http.MethodPost {
		var body struct {
			Code  string `json:"code"`
			State string `json:"state"`
		}
		if err := decodeJSON(r, &body); err == nil {
			code, state = body.Code, body.State
		}
	}
	if state == "" {
		writeJSON(w, http.StatusBadRequest, services.ResponseBase{IsSuccess: false, Message: common.MsgInvalidToken})
		return
	}

	res, err := s.svc.Spotify.Callback(r.Context(), code, state)
	s.respond(w, r, res, err)
}

func (s *Server) spotifyRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Spotify.RefreshToken(r.Context(), callerID(r))
	s.respond(w, r, res, err)
}

func (s *Server) spotifyProfile(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Spotify.GetUserProfile(r.Context(), callerID(r))
	s.respond(w, r, res, err)
}

func (s *Server) spotifyArtist(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Spotify.GetArtist(r.Context(), callerID(r), r.URL.Query().Get("id"))
	s.respond(w, r, res, err)
}
