package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func failureStatus(kind error) int {
	switch {
	case errors.Is(kind, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(kind, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, common.ErrorForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// writeError turns a service error into a ResponseBase. Anything that is not
// a known rejection is logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if f, ok := services.AsFailure(err); ok {
		writeJSON(w, failureStatus(f.Kind), services.ResponseBase{IsSuccess: false, Message: f.Message})
		return
	}

	switch {
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeJSON(w, http.StatusUnauthorized, services.ResponseBase{IsSuccess: false, Message: common.MsgTokenExpired})
	case errors.Is(err, common.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, services.ResponseBase{IsSuccess: false, Message: common.MsgInvalidToken})
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, services.ResponseBase{IsSuccess: false, Message: common.MsgInternalError})
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func badJSON(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, services.ResponseBase{IsSuccess: false, Message: common.MsgDataRecheck})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// parseMultipart reads a multipart form limited to max bytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, max int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, max)
	return r.ParseMultipartForm(max)
}

func readFile(fh *multipart.FileHeader) (services.File, error) {
	f, err := fh.Open()
	if err != nil {
		return services.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return services.File{}, err
	}
	return services.File{Name: fh.Filename, Data: data}, nil
}

// formFiles returns every file sent under one of the given field names.
func formFiles(r *http.Request, fields ...string) ([]services.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []services.File
	for _, name := range fields {
		for _, fh := range r.MultipartForm.File[name] {
			f, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func callerID(r *http.Request) string {
	if id, ok := IdentityFromContext(r.Context()); ok {
		return id.UserID
	}
	return ""
}

func callerRoles(r *http.Request) []string {
	if id, ok := IdentityFromContext(r.Context()); ok {
		return id.Roles
	}
	return nil
}
