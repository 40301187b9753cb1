package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

var ErrMiss = errors.New("cache miss")

// Cache is a small byte cache used for read-through profile lookups.
// Add stores value only when key is absent; an existing entry is not an error.
type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Add(key string, value []byte) error
	Delete(key string) error
}

type Memcached struct {
	client *memcache.Client
	ttl    int32
}

func NewMemcached(addr string, ttl time.Duration) *Memcached {
	client := memcache.New(addr)
	client.Timeout = 200 * time.Millisecond

	return &Memcached{
		client: client,
		ttl:    int32(ttl / time.Second),
	}
}

func (c *Memcached) Get(key string) ([]byte, error) {
	item, err := c.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	return item.Value, nil
}

func (c *Memcached) Set(key string, value []byte) error {
	return c.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: c.ttl,
	})
}

func (c *Memcached) Add(key string, value []byte) error {
	err := c.client.Add(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: c.ttl,
	})
	if errors.Is(err, memcache.ErrNotStored) {
		return nil
	}

	return err
}

func (c *Memcached) Delete(key string) error {
	err := c.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}

	return err
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(string) ([]byte, error) { return nil, ErrMiss }
func (Nop) Set(string, []byte) error   { return nil }
func (Nop) Add(string, []byte) error   { return nil }
func (Nop) Delete(string) error        { return nil }
