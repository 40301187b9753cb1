package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/authorsapi/profiles/internal/app/cache"
	"github.com/authorsapi/profiles/internal/app/metrics"
	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/notify"
	"github.com/authorsapi/profiles/internal/app/service"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/authorsapi/profiles/internal/app/store/teststore"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("secret")

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Dispatch(m notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, m)
	return true
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notify.Message) error {
	return errors.New("smtp down")
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, st store.Store, n service.Notifier) *server {
	t.Helper()

	logger := testLogger()
	return newServer(
		service.NewProfiles(st, cache.Nop{}, logger, 0),
		service.NewFollowGraph(st, n),
		metrics.New(),
		logger,
		testSecret,
	)
}

func createUser(t *testing.T, st store.Store, username string) *model.Profile {
	t.Helper()

	u := model.TestUser(t, username)
	p := model.NewProfile(u.ID)
	require.NoError(t, st.User().Create(context.Background(), u, p))

	return p
}

func tokenFor(t *testing.T, username string) string {
	t.Helper()

	token, err := NewToken(testSecret, username, time.Hour)
	require.NoError(t, err)

	return token
}

func doRequest(t *testing.T, s http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	b := &bytes.Buffer{}
	if body != nil {
		require.NoError(t, json.NewEncoder(b).Encode(body))
	}

	req := httptest.NewRequest(method, path, b)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var res map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	}

	return rec, res
}

func TestServer_Follow(t *testing.T) {
	st := teststore.New()
	n := &recordingNotifier{}
	s := newTestServer(t, st, n)

	createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	alice := tokenFor(t, "alice")

	rec, res := doRequest(t, s, http.MethodPost, "/profiles/bob/follow/", alice, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "You are now following bob", res["message"])
	assert.EqualValues(t, http.StatusCreated, res["status_code"])

	n.mu.Lock()
	require.Len(t, n.messages, 1)
	assert.Equal(t, bob.Email, n.messages[0].To)
	assert.Equal(t, "alice just followed you", n.messages[0].Body)
	n.mu.Unlock()

	rec, res = doRequest(t, s, http.MethodPost, "/profiles/bob/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You are already following this user", res["message"])

	rec, res = doRequest(t, s, http.MethodGet, "/profiles/bob/followers/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, res["num_of_followers"])
	followers := res["followers"].([]interface{})
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].(map[string]interface{})["username"])

	rec, res = doRequest(t, s, http.MethodGet, "/profiles/alice/follow/", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, res["num_of_users_i_follow"])
	following := res["users_i_follow"].([]interface{})
	require.Len(t, following, 1)
	entry := following[0].(map[string]interface{})
	assert.Equal(t, "bob", entry["username"])
	assert.Equal(t, true, entry["following"])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Follows))
}

func TestServer_FollowSelf(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)
	createUser(t, st, "alice")

	rec, res := doRequest(t, s, http.MethodPost, "/profiles/alice/follow/", tokenFor(t, "alice"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you can not follow yourself", res["error"])

	rec, res = doRequest(t, s, http.MethodDelete, "/profiles/alice/follow/", tokenFor(t, "alice"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you can not unfollow yourself", res["error"])
}

func TestServer_Unfollow(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)

	createUser(t, st, "alice")
	createUser(t, st, "bob")
	alice := tokenFor(t, "alice")

	rec, res := doRequest(t, s, http.MethodDelete, "/profiles/bob/follow/", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You are not following this user", res["message"])

	rec, _ = doRequest(t, s, http.MethodPost, "/profiles/bob/follow/", alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, res = doRequest(t, s, http.MethodDelete, "/profiles/bob/follow/", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You are no longer following bob", res["message"])

	_, res = doRequest(t, s, http.MethodGet, "/profiles/bob/followers/", alice, nil)
	assert.EqualValues(t, 0, res["num_of_followers"])
}

func TestServer_NotFound(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)
	createUser(t, st, "alice")
	alice := tokenFor(t, "alice")

	testCases := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{name: "detail", method: http.MethodGet, path: "/profiles/ghost/", token: alice},
		{name: "update", method: http.MethodPatch, path: "/profiles/ghost/", token: alice},
		{name: "follow", method: http.MethodPost, path: "/profiles/ghost/follow/", token: alice},
		{name: "unfollow", method: http.MethodDelete, path: "/profiles/ghost/follow/", token: alice},
		{name: "following", method: http.MethodGet, path: "/profiles/ghost/follow/", token: alice},
		{name: "followers", method: http.MethodGet, path: "/profiles/ghost/followers/"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, res := doRequest(t, s, tc.method, tc.path, tc.token, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Profile not found", res["error"])
		})
	}
}

func TestServer_Authentication(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)
	createUser(t, st, "alice")

	rec, _ := doRequest(t, s, http.MethodGet, "/profiles/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, s, http.MethodPost, "/profiles/alice/follow/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := NewToken([]byte("other"), "alice", time.Hour)
	require.NoError(t, err)
	rec, _ = doRequest(t, s, http.MethodGet, "/profiles/alice/", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := NewToken(testSecret, "alice", -time.Minute)
	require.NoError(t, err)
	rec, _ = doRequest(t, s, http.MethodGet, "/profiles/alice/", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, s, http.MethodGet, "/profiles/alice/", tokenFor(t, "deleted"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, s, http.MethodGet, "/profiles/alice/followers/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ProfileDetail(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)

	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	require.NoError(t, st.Follow().Follow(context.Background(), alice.ID, bob.ID))

	rec, res := doRequest(t, s, http.MethodGet, "/profiles/alice", tokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	own := res["profile"].(map[string]interface{})
	assert.Equal(t, alice.Email, own["email"])
	assert.Equal(t, model.DefaultPhoneNumber, own["phone_number"])
	assert.EqualValues(t, 1, own["num_of_following"])
	assert.EqualValues(t, 0, own["num_of_followers"])

	rec, res = doRequest(t, s, http.MethodGet, "/profiles/bob", tokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := res["profile"].(map[string]interface{})
	assert.NotContains(t, public, "email")
	assert.NotContains(t, public, "phone_number")
	assert.Equal(t, true, public["following"])
	assert.EqualValues(t, 1, public["num_of_followers"])

	rec, res = doRequest(t, s, http.MethodGet, "/profiles/"+alice.ID.String()+"/", tokenFor(t, "bob"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", res["profile"].(map[string]interface{})["username"])
}

func TestServer_ProfilesList(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)

	for _, name := range []string{"alice", "bob", "carol"} {
		createUser(t, st, name)
	}

	rec, res := doRequest(t, s, http.MethodGet, "/profiles/?limit=2&offset=1", tokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := res["profiles"].(map[string]interface{})
	assert.EqualValues(t, 3, page["count"])
	assert.EqualValues(t, 1, page["offset"])
	assert.EqualValues(t, 2, page["limit"])
	results := page["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "bob", results[0].(map[string]interface{})["username"])

	rec, _ = doRequest(t, s, http.MethodGet, "/profiles/?limit=ten", tokenFor(t, "alice"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ProfileUpdate(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)
	createUser(t, st, "alice")
	createUser(t, st, "bob")

	rec, res := doRequest(t, s, http.MethodPatch, "/profiles/bob/", tokenFor(t, "alice"), map[string]string{"city": "Lagos"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you can't edit a profile that doesn't belong to you", res["error"])

	rec, res = doRequest(t, s, http.MethodPatch, "/profiles/alice/", tokenFor(t, "alice"), map[string]string{
		"phone_number": "not-a-phone",
		"country":      "XX",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := res["errors"].(map[string]interface{})
	assert.Contains(t, fields, "phone_number")
	assert.Contains(t, fields, "country")

	rec, res = doRequest(t, s, http.MethodPatch, "/profiles/alice/", tokenFor(t, "alice"), map[string]string{
		"city":           "Lagos",
		"twitter_handle": "@alice",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	p := res["profile"].(map[string]interface{})
	assert.Equal(t, "Lagos", p["city"])
	assert.Equal(t, "@alice", p["twitter_handle"])
	assert.Equal(t, model.DefaultCountry, p["country"])

	req := httptest.NewRequest(http.MethodPatch, "/profiles/alice/", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "alice"))
	raw := httptest.NewRecorder()
	s.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestServer_Register(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)

	body := map[string]string{
		"username":   "dave",
		"email":      "dave@Example.COM",
		"first_name": "Dave",
		"last_name":  "Smith",
		"password":   "password123",
	}

	rec, res := doRequest(t, s, http.MethodPost, "/users/", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	p := res["profile"].(map[string]interface{})
	assert.Equal(t, "dave", p["username"])
	assert.Equal(t, "dave@example.com", p["email"])
	assert.Equal(t, "Dave Smith", p["full_name"])
	assert.Equal(t, string(model.GenderOther), p["gender"])

	rec, res = doRequest(t, s, http.MethodPost, "/users", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, res["errors"], "username")

	rec, res = doRequest(t, s, http.MethodPost, "/users/", "", map[string]string{"username": "erin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, res["errors"], "password")
}

func TestServer_NotificationFailureDoesNotFailFollow(t *testing.T) {
	st := teststore.New()
	logger := testLogger()
	m := metrics.New()

	d := notify.NewDispatcher(failingNotifier{}, logger, notify.Config{Workers: 1, QueueSize: 4})
	d.OnResult(m.ObserveNotification)

	s := newServer(
		service.NewProfiles(st, cache.Nop{}, logger, 0),
		service.NewFollowGraph(st, d),
		m,
		logger,
		testSecret,
	)

	createUser(t, st, "alice")
	createUser(t, st, "bob")

	rec, _ := doRequest(t, s, http.MethodPost, "/profiles/bob/follow/", tokenFor(t, "alice"), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("failed")))
}

func TestServer_Metrics(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)
	createUser(t, st, "alice")

	doRequest(t, s, http.MethodGet, "/profiles/alice/", tokenFor(t, "alice"), nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/profiles/{username}"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_ProfileUpdateMalformedBody(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)
	createUser(t, st, "alice")
	createUser(t, st, "bob")

	testCases := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{name: "not owner", path: "/profiles/bob/", wantCode: http.StatusForbidden, wantErr: "you can't edit a profile that doesn't belong to you"},
		{name: "missing profile", path: "/profiles/ghost/", wantCode: http.StatusNotFound, wantErr: "Profile not found"},
		{name: "owner", path: "/profiles/alice/", wantCode: http.StatusBadRequest, wantErr: "bad request: malformed JSON body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, tc.path, strings.NewReader("{"))
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, "alice"))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)

			var res map[string]interface{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
			assert.Equal(t, tc.wantErr, res["error"])
		})
	}
}

func TestServer_UnknownRoutes(t *testing.T) {
	st := teststore.New()
	s := newTestServer(t, st, nil)
	createUser(t, st, "alice")

	rec, res := doRequest(t, s, http.MethodPut, "/profiles/alice/", tokenFor(t, "alice"), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", res["error"])
	assert.EqualValues(t, http.StatusMethodNotAllowed, res["status_code"])

	rec, res = doRequest(t, s, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", res["error"])
}
