package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/auth"
	"github.com/dmitrijs2005/rustytech/internal/server/services"
	"github.com/google/uuid"
)

type ctxKey string

const identityKey ctxKey = "identity"

// TokenParser validates bearer tokens.
type TokenParser interface {
	ParseToken(token string) (*auth.Identity, error)
}

// IdentityFromContext returns the caller set by the auth middleware.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

func withIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// authenticate rejects requests without a valid bearer token. The status is
// written without a body; the envelope fills in the message.
func authenticate(p TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			id, err := p.ParseToken(token)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// requireRoles lets the request through when the caller holds any of roles.
// It must run after authenticate.
func requireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if slices.Contains(id.Roles, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

const requestIDHeader = "X-Request-ID"

// accessLog tags the request context with a request id, taken from the
// X-Request-ID header when present, and logs one line per response.
func accessLog(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)
			r = r.WithContext(logging.ContextWith(r.Context(), "request_id", requestID))

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"size", rec.size,
				"duration", time.Since(start).String(),
			)
		})
	}
}

func recoverer(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					l.Error(r.Context(), "panic", "error", p, "stack", string(debug.Stack()))
					data, _ := json.Marshal(services.ResponseBase{IsSuccess: false, Message: common.MsgInternalError})
					writeJSON(w, http.StatusInternalServerError, Envelope{StatusCode: http.StatusInternalServerError, Data: data})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Envelope is the body written for every response.
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

var fixedMessages = map[int]string{
	http.StatusUnauthorized:     common.MsgUnauthorized,
	http.StatusForbidden:        common.MsgForbidden,
	http.StatusNotFound:         common.MsgNotFound,
	http.StatusMethodNotAllowed: common.MsgMethodNotAllowed,
}

// bufferedWriter holds the status and body until the envelope is written.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// envelope rewrites every response as {statusCode, data}. JSON bodies are
// embedded as is, other bodies become a JSON string and empty 401, 403, 404
// and 405 responses get a fixed message.
func envelope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := &bufferedWriter{header: http.Header{}}
		next.ServeHTTP(buf, r)

		status := buf.status
		if status == 0 {
			status = http.StatusOK
		}

		var data json.RawMessage
		raw := bytes.TrimSpace(buf.body.Bytes())
		switch {
		case len(raw) == 0:
			if msg, ok := fixedMessages[status]; ok {
				data, _ = json.Marshal(services.ResponseBase{IsSuccess: false, Message: msg})
			} else {
				data = json.RawMessage("null")
			}
		case json.Valid(raw):
			data = raw
		default:
			data, _ = json.Marshal(string(raw))
		}

		for k, v := range buf.header {
			if k == "Content-Length" || k == "Content-Type" {
				continue
			}
			w.Header()[k] = v
		}
		writeJSON(w, status, Envelope{StatusCode: status, Data: data})
	})
}
