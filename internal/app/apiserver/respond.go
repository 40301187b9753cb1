package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authorsapi/profiles/internal/app/service"
	"github.com/sirupsen/logrus"
)

type envelope map[string]interface{}

func (s *server) respond(w http.ResponseWriter, r *http.Request, code int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["status_code"] = code

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.requestLogger(r).Warnf("write response: %v", err)
	}
}

// error maps service and auth errors onto status codes. Unknown errors are
// logged and reported as 500 without their cause.
func (s *server) error(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		s.respond(w, r, http.StatusBadRequest, envelope{"errors": ve.Fields})
	case errors.Is(err, errNotAuthenticated), errors.Is(err, errInvalidToken):
		s.respond(w, r, http.StatusUnauthorized, envelope{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		s.respond(w, r, http.StatusNotFound, envelope{"error": "Profile not found"})
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrSelfFollow),
		errors.Is(err, service.ErrSelfUnfollow):
		s.respond(w, r, http.StatusForbidden, envelope{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyFollowing):
		s.respond(w, r, http.StatusBadRequest, envelope{"message": "You are already following this user"})
	case errors.Is(err, service.ErrNotFollowing):
		s.respond(w, r, http.StatusBadRequest, envelope{"message": "You are not following this user"})
	case errors.Is(err, errBadRequest):
		s.respond(w, r, http.StatusBadRequest, envelope{"error": err.Error()})
	default:
		s.requestLogger(r).WithError(err).Error("request failed")
		s.respond(w, r, http.StatusInternalServerError, envelope{"error": "internal server error"})
	}
}

func (s *server) requestLogger(r *http.Request) *logrus.Entry {
	fields := logrus.Fields{"remote_addr": r.RemoteAddr}
	if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		fields["request_id"] = id
	}

	return s.logger.WithFields(fields)
}
