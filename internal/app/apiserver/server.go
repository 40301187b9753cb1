package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/authorsapi/profiles/internal/app/metrics"
	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/service"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var errBadRequest = errors.New("bad request")

type server struct {
	router    *mux.Router
	logger    *logrus.Logger
	profiles  *service.Profiles
	graph     *service.FollowGraph
	gate      service.Gate
	metrics   *metrics.Metrics
	jwtSecret []byte
}

func newServer(profiles *service.Profiles, graph *service.FollowGraph, m *metrics.Metrics, logger *logrus.Logger, jwtSecret []byte) *server {
	s := &server{
		router:    mux.NewRouter(),
		logger:    logger,
		profiles:  profiles,
		graph:     graph,
		metrics:   m,
		jwtSecret: jwtSecret,
	}

	s.configureRouter()

	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) configureRouter() {
	s.router.Use(s.setRequestID)
	s.router.Use(s.logRequest)
	s.router.Use(s.instrument)

	s.handle("/profiles", s.authenticate(s.handleProfilesList()), http.MethodGet)
	s.handle("/profiles/{username}", s.authenticate(s.handleProfileDetail()), http.MethodGet)
	s.handle("/profiles/{username}", s.authenticate(s.handleProfileUpdate()), http.MethodPatch)
	s.handle("/profiles/{username}/followers", s.authenticateOptional(s.handleFollowers()), http.MethodGet)
	s.handle("/profiles/{username}/follow", s.authenticate(s.handleFollowing()), http.MethodGet)
	s.handle("/profiles/{username}/follow", s.authenticate(s.handleFollow()), http.MethodPost)
	s.handle("/profiles/{username}/follow", s.authenticate(s.handleUnfollow()), http.MethodDelete)
	s.handle("/users", s.handleRegister(), http.MethodPost)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, http.StatusNotFound, envelope{"error": "not found"})
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, http.StatusMethodNotAllowed, envelope{"error": "method not allowed"})
	})
}

// handle registers path with and without the trailing slash.
func (s *server) handle(path string, h http.HandlerFunc, methods ...string) {
	s.router.HandleFunc(path, h).Methods(methods...)
	s.router.HandleFunc(path+"/", h).Methods(methods...)
}

func (s *server) setRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

func (s *server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.requestLogger(r)
		logger.Debugf("started %s %s", r.Method, r.RequestURI)

		start := time.Now()
		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		var level logrus.Level
		switch {
		case rw.code >= 500:
			level = logrus.ErrorLevel
		case rw.code >= 400:
			level = logrus.WarnLevel
		default:
			level = logrus.InfoLevel
		}

		logger.Logf(
			level,
			"%s %s completed with %d %s in %v",
			r.Method,
			r.RequestURI,
			rw.code,
			http.StatusText(rw.code),
			time.Since(start),
		)
	})
}

func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = strings.TrimSuffix(tpl, "/")
			}
		}

		start := time.Now()
		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		s.metrics.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rw.code)).
			Observe(time.Since(start).Seconds())
	})
}

func (s *server) handleProfilesList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			s.error(w, r, err)
			return
		}

		actor := actorFrom(r.Context())
		res, err := s.profiles.ListAll(r.Context(), page)
		if err != nil {
			s.error(w, r, err)
			return
		}

		followed, err := s.graph.FollowedAmong(r.Context(), actor, res.Profiles)
		if err != nil {
			s.error(w, r, err)
			return
		}

		results := make([]interface{}, 0, len(res.Profiles))
		for _, p := range res.Profiles {
			results = append(results, viewFor(actor, p, followed[p.ID]))
		}

		s.respond(w, r, http.StatusOK, envelope{
			"profiles": profilePageView{
				Count:   res.Total,
				Offset:  res.Offset,
				Limit:   res.Limit,
				Results: results,
			},
		})
	}
}

func (s *server) handleProfileDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())

		p, err := s.profiles.GetDetail(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			s.error(w, r, err)
			return
		}

		following := false
		if !isOwner(actor, p) {
			if following, err = s.graph.IsFollowing(r.Context(), actor, p); err != nil {
				s.error(w, r, err)
				return
			}
		}

		followers, followees, err := s.graph.Counts(r.Context(), p)
		if err != nil {
			s.error(w, r, err)
			return
		}

		s.respond(w, r, http.StatusOK, envelope{
			"profile": detailViewFor(actor, p, following, followCounts{
				NumOfFollowers: followers,
				NumOfFollowing: followees,
			}),
		})
	}
}

func (s *server) handleProfileUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())

		// The body is only read once the target exists and belongs to actor.
		target, err := s.profiles.Lookup(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			s.error(w, r, err)
			return
		}
		if err := s.gate.AuthorizeProfileUpdate(actor.Username, target.Username); err != nil {
			s.error(w, r, err)
			return
		}

		patch := &model.ProfilePatch{}
		if err := decodeBody(r, patch); err != nil {
			s.error(w, r, err)
			return
		}

		p, err := s.profiles.Update(r.Context(), actor.Username, target.Username, patch)
		if err != nil {
			s.error(w, r, err)
			return
		}

		s.respond(w, r, http.StatusOK, envelope{"profile": viewFor(actor, p, false)})
	}
}

func (s *server) handleFollowers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())

		p, err := s.profiles.Lookup(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			s.error(w, r, err)
			return
		}

		followers, n, err := s.graph.ListFollowers(r.Context(), p)
		if err != nil {
			s.error(w, r, err)
			return
		}

		followed, err := s.graph.FollowedAmong(r.Context(), actor, followers)
		if err != nil {
			s.error(w, r, err)
			return
		}

		s.respond(w, r, http.StatusOK, envelope{
			"followers":        followEntries(followers, followed),
			"num_of_followers": n,
		})
	}
}

func (s *server) handleFollowing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())

		p, err := s.profiles.Lookup(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			s.error(w, r, err)
			return
		}

		following, n, err := s.graph.ListFollowing(r.Context(), p)
		if err != nil {
			s.error(w, r, err)
			return
		}

		followed, err := s.graph.FollowedAmong(r.Context(), actor, following)
		if err != nil {
			s.error(w, r, err)
			return
		}

		s.respond(w, r, http.StatusOK, envelope{
			"users_i_follow":        followEntries(following, followed),
			"num_of_users_i_follow": n,
		})
	}
}

func (s *server) handleFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())

		target, err := s.profiles.Lookup(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			s.error(w, r, err)
			return
		}

		if err := s.gate.AuthorizeFollowAction(actor.Username, target.Username, service.ActionFollow); err != nil {
			s.error(w, r, err)
			return
		}

		if err := s.graph.Follow(r.Context(), actor, target); err != nil {
			s.error(w, r, err)
			return
		}
		s.metrics.Follows.Inc()

		s.respond(w, r, http.StatusCreated, envelope{
			"message": fmt.Sprintf("You are now following %s", target.Username),
		})
	}
}

func (s *server) handleUnfollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())

		target, err := s.profiles.Lookup(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			s.error(w, r, err)
			return
		}

		if err := s.gate.AuthorizeFollowAction(actor.Username, target.Username, service.ActionUnfollow); err != nil {
			s.error(w, r, err)
			return
		}

		if err := s.graph.Unfollow(r.Context(), actor, target); err != nil {
			s.error(w, r, err)
			return
		}
		s.metrics.Unfollows.Inc()

		s.respond(w, r, http.StatusOK, envelope{
			"message": fmt.Sprintf("You are no longer following %s", target.Username),
		})
	}
}

func (s *server) handleRegister() http.HandlerFunc {
	type request struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req := &request{}
		if err := decodeBody(r, req); err != nil {
			s.error(w, r, err)
			return
		}

		u := &model.User{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Password:  req.Password,
		}

		p, err := s.profiles.Register(r.Context(), u)
		if err != nil {
			s.error(w, r, err)
			return
		}

		s.respond(w, r, http.StatusCreated, envelope{"profile": viewFor(p, p, false)})
	}
}

// decodeBody treats an empty body as an empty object.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body", errBadRequest)
	}

	return nil
}

func parsePage(r *http.Request) (service.Page, error) {
	var page service.Page

	q := r.URL.Query()
	for key, dst := range map[string]*int{"offset": &page.Offset, "limit": &page.Limit} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
		}
		*dst = n
	}

	return page, nil
}

type responseWriter struct {
	http.ResponseWriter
	code int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.code = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
