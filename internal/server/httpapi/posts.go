package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/content"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
	"github.com/gorilla/mux"
)

// allPosts lists published posts unless ?published=false.
func (s *Server) allPosts(w http.ResponseWriter, r *http.Request) {
	published := true
	if v := r.URL.Query().Get("published"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badJSON(w)
			return
		}
		published = b
	}
	res, err := s.svc.Posts.GetAll(r.Context(), published)
	s.respond(w, r, res, err)
}

func (s *Server) postByID(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Posts.GetByID(r.Context(), mux.Vars(r)["postId"])
	s.respond(w, r, res, err)
}

// mediaFields lists the multipart field names accepted per post type.
var mediaFields = map[models.PostType][]string{
	models.PostTypeBlog:  {"images", "image"},
	models.PostTypeImage: {"image", "file"},
	models.PostTypeVideo: {"video", "file"},
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	postType := models.PostType(mux.Vars(r)["type"])

	if err := parseMultipart(w, r, s.maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, services.ResponseBase{IsSuccess: false, Message: common.MsgDataRecheck})
		return
	}

	files, err := formFiles(r, mediaFields[postType]...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	keywords := r.MultipartForm.Value["keywords"]
	if len(keywords) == 1 {
		keywords = content.SplitKeywords(keywords[0])
	}

	res, err := s.svc.Posts.CreatePost(r.Context(), postType, services.CreatePostRequest{
		UserID:   callerID(r),
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Keywords: keywords,
		Files:    files,
	})
	s.respond(w, r, res, err)
}

func (s *Server) togglePublished(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Posts.TogglePublished(r.Context(), r.URL.Query().Get("postId"))
	s.respond(w, r, res, err)
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request) {
	var req services.UpdatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	req.UserID = callerID(r)
	res, err := s.svc.Posts.Edit(r.Context(), req)
	s.respond(w, r, res, err)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Posts.Delete(r.Context(), services.DeletePostRequest{
		PostID: mux.Vars(r)["postId"],
		UserID: callerID(r),
		Roles:  callerRoles(r),
	})
	s.respond(w, r, res, err)
}

func (s *Server) searchPosts(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Posts.Search(r.Context(), r.URL.Query().Get("query"))
	s.respond(w, r, res, err)
}

func (s *Server) allKeywords(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Posts.GetAllKeywords(r.Context())
	s.respond(w, r, res, err)
}

func (s *Server) postKeywords(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Posts.GetPostKeywords(r.Context(), mux.Vars(r)["postId"])
	s.respond(w, r, res, err)
}
