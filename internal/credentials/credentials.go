package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	"github.com/tidwall/buntdb"
)

const (
	tokenKey  = "session:token"
	secretKey = "local:jwt_secret"
)

var ErrNotLoggedIn = errors.New("not logged in, run 'attendr login' first")

// Token is the cached result of a login
type Token struct {
	Value     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps CLI credentials in a buntdb file next to the database
type Store struct {
	db  *buntdb.DB
	now func() time.Time
}

// Open opens dir/credentials.db. Pass ":memory:" as dir for a throwaway store.
func Open(dir string) (*Store, error) {
	path := ":memory:"
	if dir != ":memory:" {
		path = filepath.Join(dir, "credentials.db")
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveToken caches t until it expires
func (s *Store) SaveToken(t Token) error {
	ttl := t.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("token already expired")
	}
	bs, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(tokenKey, string(bs), &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
}

// Token returns the cached token or ErrNotLoggedIn
func (s *Store) Token() (Token, error) {
	var t Token
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(tokenKey)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v), &t)
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return Token{}, ErrNotLoggedIn
	}
	if err != nil {
		return Token{}, err
	}
	if !t.ExpiresAt.After(s.now()) {
		return Token{}, ErrNotLoggedIn
	}
	return t, nil
}

// Clear forgets the cached token. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(tokenKey)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	return err
}

// LocalSecret returns the signing secret used when no ATTENDR_JWT_SECRET is configured,
// generating and persisting one on first use.
func (s *Store) LocalSecret() (string, error) {
	var secret string
	err := s.db.Update(func(tx *buntdb.Tx) error {
		v, err := tx.Get(secretKey)
		if err == nil {
			secret = v
			return nil
		}
		if !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		secret = hex.EncodeToString(buf)
		_, _, err = tx.Set(secretKey, secret, nil)
		return err
	})
	return secret, err
}
