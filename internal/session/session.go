// Package session provides Valkey-backed per-browser form state. A browser
// is identified by a random cookie; its certificate form is stored as JSON
// in Valkey with automatic TTL expiry, next to a short-lived lock that
// guards the generation cycle.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ewed/internal/certificate"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "ewed_session"

	// DefaultTTL is how long a form lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// LockTTL bounds how long a generation lock outlives an owner that died
	// without releasing it. A live owner keeps extending it.
	LockTTL = 2 * time.Minute

	// maxUpdateAttempts bounds the optimistic retries of Update.
	maxUpdateAttempts = 8

	// formPrefix and lockPrefix namespace the keys in Valkey.
	formPrefix = "form:"
	lockPrefix = "lock:generate:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only if it still holds our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// ErrContended is returned by Update when the form kept changing between
// its read and its write.
var ErrContended = errors.New("session: form changed concurrently")

// Store manages per-browser forms in Valkey.
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	secure  bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure marks the cookie Secure (set behind TLS in production).
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client:  client,
		ttl:     DefaultTTL,
		lockTTL: LockTTL,
		secure:  secure,
	}
}

// EnsureID returns the session ID from the request cookie, creating and
// setting a new one when the browser has none.
func (s *Store) EnsureID(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && validID(cookie.Value) {
		return cookie.Value, nil
	}

	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return id, nil
}

// Load returns the stored form for id. ok is false when nothing is stored
// or the form expired.
func (s *Store) Load(ctx context.Context, id string) (form certificate.Form, ok bool, err error) {
	return getForm(ctx, s.client, formPrefix+id)
}

// Update reads the form for id, hands it to fn and stores what fn returns,
// resetting the TTL. The write only lands if nobody stored the form since
// the read; otherwise fn runs again on the fresh value. found is false
// when nothing is stored. An error from fn aborts without writing and is
// returned as is.
func (s *Store) Update(ctx context.Context, id string, fn func(form certificate.Form, found bool) (certificate.Form, error)) error {
	key := formPrefix + id
	txf := func(tx *redis.Tx) error {
		form, found, err := getForm(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(form, found)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("session marshal: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrContended
}

// getter is the read side shared by the client and a watched transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getForm(ctx context.Context, c getter, key string) (form certificate.Form, ok bool, err error) {
	payload, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return certificate.Form{}, false, nil
	}
	if err != nil {
		return certificate.Form{}, false, fmt.Errorf("session get: %w", err)
	}

	if err := json.Unmarshal(payload, &form); err != nil {
		return certificate.Form{}, false, fmt.Errorf("session unmarshal: %w", err)
	}
	return form, true, nil
}

// Lock takes the generation lock for id. It returns
// certificate.ErrInFlight when another generation holds it. The lock is
// extended in the background until the returned function releases it, so
// a slow generation cannot outlive it. Releasing twice is a no-op.
func (s *Store) Lock(ctx context.Context, id string) (func(), error) {
	token, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("session lock: %w", err)
	}

	key := lockPrefix + id
	ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("session lock: %w", err)
	}
	if !ok {
		return nil, certificate.ErrInFlight
	}

	done := make(chan struct{})
	go s.keepLock(key, token, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			// The request context may already be cancelled.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			unlockScript.Run(ctx, s.client, []string{key}, token)
		})
	}, nil
}

// keepLock extends the lock every third of its TTL until done is closed or
// the lock no longer holds token.
func (s *Store) keepLock(key, token string, done <-chan struct{}) {
	every := s.lockTTL / 3
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-done:
			return
		case <-tick.C:
			ctx, cancel := context.WithTimeout(context.Background(), every)
			held, err := refreshScript.Run(ctx, s.client, []string{key}, token, s.lockTTL.Milliseconds()).Int()
			cancel()
			if err != nil {
				slog.Warn("session lock refresh failed", "error", err)
				continue
			}
			if held == 0 {
				return
			}
		}
	}
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validID reports whether v looks like an ID produced by generateID.
func validID(v string) bool {
	if len(v) != idLength*2 {
		return false
	}
	_, err := hex.DecodeString(v)
	return err == nil
}
