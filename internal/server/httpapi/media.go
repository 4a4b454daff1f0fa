package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
)

// singleFile parses the multipart body and returns the "file" part.
func (s *Server) singleFile(w http.ResponseWriter, r *http.Request) (services.File, bool) {
	if err := parseMultipart(w, r, s.maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, services.ResponseBase{IsSuccess: false, Message: common.MsgDataRecheck})
		return services.File{}, false
	}
	files, err := formFiles(r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return services.File{}, false
	}
	if len(files) != 1 {
		writeJSON(w, http.StatusBadRequest, services.ResponseBase{IsSuccess: false, Message: common.MsgDataRecheck})
		return services.File{}, false
	}
	return files[0], true
}

func (s *Server) upload(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := s.singleFile(w, r)
		if !ok {
			return
		}
		if kind == "video" {
			res, err := s.svc.Media.UploadVideo(r.Context(), f)
			s.respond(w, r, res, err)
			return
		}
		res, err := s.svc.Media.UploadImage(r.Context(), f)
		s.respond(w, r, res, err)
	}
}

func (s *Server) metadata(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := s.singleFile(w, r)
		if !ok {
			return
		}
		if kind == "video" {
			res, err := s.svc.Media.VideoMetadata(f)
			s.respond(w, r, res, err)
			return
		}
		res, err := s.svc.Media.ImageMetadata(f)
		s.respond(w, r, res, err)
	}
}
