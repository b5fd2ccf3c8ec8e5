// Package session keeps login sessions in Redis and issues the bearer tokens
// that point at them.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("session not found")

const keyPrefix = "labdesk:session:"

func sessionKey(id string) string    { return keyPrefix + id }
func userIndexKey(uid string) string { return keyPrefix + "user:" + uid }

// Session is the server side half of a login. The token only carries its id.
type Session struct {
	ID        string
	UserID    string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AppSessionStore stores each session as a hash with a TTL and indexes the
// session ids per user so all of them can be revoked at once.
type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

func (s *AppSessionStore) Create(ctx context.Context, id, userID, role string) (*Session, error) {
	now := time.Now().Truncate(time.Second)
	sess := &Session{ID: id, UserID: userID, Role: role, IssuedAt: now, ExpiresAt: now.Add(s.ttl)}

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, sessionKey(id),
			"uid", userID,
			"role", role,
			"iat", now.Unix(),
			"exp", sess.ExpiresAt.Unix(),
		)
		p.Expire(ctx, sessionKey(id), s.ttl)
		p.SAdd(ctx, userIndexKey(userID), id)
		// the index lives as long as the newest session
		p.Expire(ctx, userIndexKey(userID), s.ttl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	m, err := s.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNoSession
	}
	iat, _ := strconv.ParseInt(m["iat"], 10, 64)
	exp, _ := strconv.ParseInt(m["exp"], 10, 64)
	return &Session{
		ID:        id,
		UserID:    m["uid"],
		Role:      m["role"],
		IssuedAt:  time.Unix(iat, 0),
		ExpiresAt: time.Unix(exp, 0),
	}, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	uid, err := s.rdb.HGet(ctx, sessionKey(id), "uid").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, sessionKey(id))
		if uid != "" {
			p.SRem(ctx, userIndexKey(uid), id)
		}
		return nil
	})
	return err
}

// RevokeAllForUser ends every session of a user, e.g. when the account is
// deactivated or deleted.
func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, userID string) error {
	ids, err := s.rdb.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userIndexKey(userID))
	return s.rdb.Del(ctx, keys...).Err()
}

// CountForUser reports how many of the user's sessions are still live.
func (s *AppSessionStore) CountForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.rdb.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		ok, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
		if err != nil {
			return 0, err
		}
		n += int(ok)
	}
	return n, nil
}
