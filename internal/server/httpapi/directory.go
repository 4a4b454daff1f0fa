package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/rustytech/internal/server/services"
	"github.com/gorilla/mux"
)

func (s *Server) allUsers(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Users.GetAll(r.Context())
	s.respond(w, r, res, err)
}

func (s *Server) userByID(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Users.GetByID(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, res, err)
}

func (s *Server) userPosts(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Users.GetUserPosts(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, res, err)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Users.Delete(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, res, err)
}

// createRole accepts ?roleName= or a {"roleName": ...} body.
func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("roleName")
	if name == "" {
		var body services.RoleRequest
		if err := decodeJSON(r, &body); err == nil {
			name = body.RoleName
		}
	}
	res, err := s.svc.Roles.CreateRole(r.Context(), name)
	s.respond(w, r, res, err)
}

func (s *Server) allRoles(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Roles.GetAllRoles(r.Context())
	s.respond(w, r, res, err)
}

func (s *Server) roleByID(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Roles.GetRoleByID(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, res, err)
}

func (s *Server) roleByName(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Roles.GetRoleByName(r.Context(), mux.Vars(r)["name"])
	s.respond(w, r, res, err)
}

func (s *Server) userRoles(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Roles.GetUserRoles(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, res, err)
}

func (s *Server) addRoleToUser(w http.ResponseWriter, r *http.Request) {
	var req services.RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	res, err := s.svc.Roles.AddRoleToUser(r.Context(), req)
	s.respond(w, r, res, err)
}

func (s *Server) removeRoleFromUser(w http.ResponseWriter, r *http.Request) {
	var req services.RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	res, err := s.svc.Roles.RemoveRoleFromUser(r.Context(), req)
	s.respond(w, r, res, err)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Roles.DeleteRole(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, res, err)
}
