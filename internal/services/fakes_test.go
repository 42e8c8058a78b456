package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/profiledesk/apiserver/internal/store"
	"github.com/profiledesk/apiserver/types"
)

type fakeRepo struct {
	mu        sync.Mutex
	accounts  map[string]types.Account
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]types.Account)}
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (r *fakeRepo) find(match func(types.Account) bool) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if match(account) {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (r *fakeRepo) GetByIdentifier(_ context.Context, identifier string) (types.Account, error) {
	identifier = strings.ToLower(identifier)
	return r.find(func(a types.Account) bool { return a.Email == identifier || a.Username == identifier })
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (types.Account, error) {
	email = strings.ToLower(email)
	return r.find(func(a types.Account) bool { return a.Email == email })
}

func (r *fakeRepo) GetByUsername(_ context.Context, username string) (types.Account, error) {
	username = strings.ToLower(username)
	return r.find(func(a types.Account) bool { return a.Username == username })
}

func (r *fakeRepo) Create(_ context.Context, account types.Account) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email || existing.Username == account.Username {
			return types.Account{}, store.ErrConflict
		}
	}
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.ID] = account
	return account, nil
}

func (r *fakeRepo) Update(_ context.Context, account types.Account) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return types.Account{}, r.updateErr
	}
	if _, ok := r.accounts[account.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	account.UpdatedAt = time.Now().UTC()
	r.accounts[account.ID] = account
	return account, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hash, password string) bool {
	return hash == "hashed:"+password
}

type fakeTokens struct{}

func (fakeTokens) Issue(subjectID, email string) (string, error) {
	return "token-" + subjectID, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []types.AccountEvent
	err    error
}

func (e *fakeEvents) PublishAccountEvent(_ context.Context, event types.AccountEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

func (e *fakeEvents) eventTypes() []types.AccountEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.AccountEventType, 0, len(e.events))
	for _, event := range e.events {
		out = append(out, event.Type)
	}
	return out
}

type fakeObjectStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
	puts         int
	deleted      []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: got %d want %d", len(data), size)
	}
	s.objects[key] = data
	s.contentTypes[key] = contentType
	return nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) URL(key string) string {
	return "https://media.test/" + key
}

var errBoom = errors.New("boom")

// pngBytes returns a payload of n bytes that sniffs as image/png.
func pngBytes(n int) []byte {
	sig := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if n < len(sig) {
		n = len(sig)
	}
	data := make([]byte, n)
	copy(data, sig)
	return data
}
