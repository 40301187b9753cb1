package service_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/authorsapi/profiles/internal/app/cache"
	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/notify"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *fakeNotifier) Dispatch(m notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, m)
	return true
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Add(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; !ok {
		c.data[key] = value
	}
	return nil
}

func (c *mapCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func createUser(t *testing.T, s store.Store, username string) *model.Profile {
	t.Helper()

	u := model.TestUser(t, username)
	p := model.NewProfile(u.ID)
	require.NoError(t, s.User().Create(context.Background(), u, p))

	return p
}
