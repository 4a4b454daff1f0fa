package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/cryptox"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"golang.org/x/oauth2"
)

type TokenStore interface {
	Save(ctx context.Context, userID string, tok *oauth2.Token) error
	Load(ctx context.Context, userID string) (*oauth2.Token, error)
	Delete(ctx context.Context, userID string) error
}

// OpenBadger opens the key/value store at dir. An empty dir opens an
// in-memory instance.
func OpenBadger(dir string, l logging.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{l})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// BadgerTokenStore keeps one sealed token per user. Entries expire after ttl.
type BadgerTokenStore struct {
	db  *badger.DB
	key []byte
	ttl time.Duration
}

func NewBadgerTokenStore(db *badger.DB, secret string, ttl time.Duration) *BadgerTokenStore {
	return &BadgerTokenStore{db: db, key: cryptox.KeyFromSecret(secret), ttl: ttl}
}

func tokenKey(userID string) []byte {
	return []byte("spotify/token/" + userID)
}

func (s *BadgerTokenStore) Save(ctx context.Context, userID string, tok *oauth2.Token) error {
	sealed, err := cryptox.Seal(tok, s.key)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(tokenKey(userID), sealed)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (s *BadgerTokenStore) Load(ctx context.Context, userID string) (*oauth2.Token, error) {
	var sealed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(userID))
		if err != nil {
			return err
		}
		sealed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}

	var tok oauth2.Token
	if err := cryptox.Open(sealed, s.key, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *BadgerTokenStore) Delete(ctx context.Context, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tokenKey(userID))
	})
}

type badgerLogger struct {
	log logging.Logger
}

func (b badgerLogger) Errorf(f string, args ...any) {
	b.log.Error(context.Background(), fmt.Sprintf(f, args...), "component", "badger")
}

func (b badgerLogger) Warningf(f string, args ...any) {
	b.log.Warn(context.Background(), fmt.Sprintf(f, args...), "component", "badger")
}

func (b badgerLogger) Infof(f string, args ...any) {
	b.log.Debug(context.Background(), fmt.Sprintf(f, args...), "component", "badger")
}

func (b badgerLogger) Debugf(f string, args ...any) {
	b.log.Debug(context.Background(), fmt.Sprintf(f, args...), "component", "badger")
}
