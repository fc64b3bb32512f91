package scm

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache remembers resolved commits for a short time. Failed lookups are not
// cached.
type Cache struct {
	lru *expirable.LRU[string, string]
}

func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Wrap returns repo with lookups cached under key, usually the repository URL.
func (c *Cache) Wrap(key string, repo Repository) Repository {
	return &Cached{repo: repo, key: key, cache: c}
}

func (c *Cache) Len() int { return c.lru.Len() }

// Cached is a Repository served from a Cache.
type Cached struct {
	repo  Repository
	key   string
	cache *Cache
}

func (c *Cached) CommitFromRef(ctx context.Context, ref string) (string, error) {
	k := c.key + "\x00" + ref
	if sha, ok := c.cache.lru.Get(k); ok {
		return sha, nil
	}
	sha, err := c.repo.CommitFromRef(ctx, ref)
	if err != nil {
		return "", err
	}
	c.cache.lru.Add(k, sha)
	return sha, nil
}

// Remotes is the Source backed by git remotes behind a shared cache.
type Remotes struct {
	cache *Cache
}

func NewRemotes(cache *Cache) *Remotes {
	return &Remotes{cache: cache}
}

func (r *Remotes) Repository(url string) Repository {
	remote := NewGitRemote(url)
	if r.cache == nil {
		return remote
	}
	return r.cache.Wrap(url, remote)
}
