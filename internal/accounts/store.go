// Package accounts persists the set of named API credentials and which one is
// active.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"julesctl/internal/logging"
	"julesctl/internal/store"
	"julesctl/internal/types"
)

const (
	keyAccounts  = "jules_accounts"
	keyActiveID  = "jules_active_account_id"
	keyLegacyKey = "jules_api_key"

	migratedAccountName = "Default"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrInvalidAccount = errors.New("account name and api key are required")
)

// AccountPatch carries the fields Update changes; nil fields are left alone.
type AccountPatch struct {
	Name   *string
	APIKey *string
}

type Store struct {
	kv     store.KV
	logger logging.Logger
	newID  func() string
	mu     sync.Mutex
}

type Option func(*Store)

func WithLogger(logger logging.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID generator, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func New(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: logging.Nop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) List(ctx context.Context) ([]types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Add(ctx context.Context, name, apiKey string) (types.Account, error) {
	name = strings.TrimSpace(name)
	apiKey = strings.TrimSpace(apiKey)
	if name == "" || apiKey == "" {
		return types.Account{}, ErrInvalidAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return types.Account{}, err
	}
	account := types.Account{ID: s.newID(), Name: name, APIKey: apiKey}
	accounts = append(accounts, account)
	if err := s.saveAccounts(ctx, accounts); err != nil {
		return types.Account{}, err
	}
	if len(accounts) == 1 {
		if err := s.kv.Set(ctx, keyActiveID, account.ID); err != nil {
			return types.Account{}, err
		}
	}
	s.logger.Info("account added", logging.F("account_id", account.ID), logging.F("key", logging.Redact(apiKey)))
	return account, nil
}

func (s *Store) Update(ctx context.Context, id string, patch AccountPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(accounts, id)
	if idx < 0 {
		return ErrNotFound
	}
	updated := accounts[idx]
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.APIKey != nil {
		updated.APIKey = strings.TrimSpace(*patch.APIKey)
	}
	if updated.Name == "" || updated.APIKey == "" {
		return ErrInvalidAccount
	}
	accounts[idx] = updated
	return s.saveAccounts(ctx, accounts)
}

// Remove deletes the account. If it was active, the first remaining account
// becomes active, or none when the set is empty.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(accounts, id)
	if idx < 0 {
		return ErrNotFound
	}
	accounts = append(accounts[:idx], accounts[idx+1:]...)
	if err := s.saveAccounts(ctx, accounts); err != nil {
		return err
	}

	activeID, err := s.activeID(ctx)
	if err != nil {
		return err
	}
	if activeID != id {
		return nil
	}
	if len(accounts) == 0 {
		return s.kv.Delete(ctx, keyActiveID)
	}
	return s.kv.Set(ctx, keyActiveID, accounts[0].ID)
}

// ActiveID returns the active account id, or "" when none is active.
func (s *Store) ActiveID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx); err != nil {
		return "", err
	}
	return s.activeID(ctx)
}

func (s *Store) SetActiveID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(accounts, id) < 0 {
		return ErrNotFound
	}
	return s.kv.Set(ctx, keyActiveID, id)
}

// Active returns the active account, or nil when none is active or the stored
// pointer no longer names an account.
func (s *Store) Active(ctx context.Context) (*types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	activeID, err := s.activeID(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(accounts, activeID); idx >= 0 {
		account := accounts[idx]
		return &account, nil
	}
	return nil, nil
}

// ActiveCredential returns the active account's API key, or "" when no
// account is active.
func (s *Store) ActiveCredential(ctx context.Context) (string, error) {
	account, err := s.Active(ctx)
	if err != nil || account == nil {
		return "", err
	}
	return account.APIKey, nil
}

// load reads the account list, migrating the legacy single-key layout the
// first time it is seen. Callers hold s.mu.
func (s *Store) load(ctx context.Context) ([]types.Account, error) {
	raw, ok, err := s.kv.Get(ctx, keyAccounts)
	if err != nil {
		return nil, err
	}
	if ok {
		var accounts []types.Account
		if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
			s.logger.Warn("account record unreadable; treating as empty", logging.Err(err))
			return []types.Account{}, nil
		}
		if accounts == nil {
			accounts = []types.Account{}
		}
		return accounts, nil
	}
	return s.migrateLegacy(ctx)
}

func (s *Store) migrateLegacy(ctx context.Context) ([]types.Account, error) {
	legacy, ok, err := s.kv.Get(ctx, keyLegacyKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.Account{}, nil
	}
	legacy = strings.TrimSpace(legacy)
	if legacy == "" {
		if err := s.kv.Delete(ctx, keyLegacyKey); err != nil {
			return nil, err
		}
		return []types.Account{}, nil
	}

	account := types.Account{ID: s.newID(), Name: migratedAccountName, APIKey: legacy}
	accounts := []types.Account{account}
	if err := s.saveAccounts(ctx, accounts); err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, keyActiveID, account.ID); err != nil {
		return nil, err
	}
	if err := s.kv.Delete(ctx, keyLegacyKey); err != nil {
		return nil, err
	}
	s.logger.Info("migrated legacy api key", logging.F("account_id", account.ID))
	return accounts, nil
}

func (s *Store) activeID(ctx context.Context) (string, error) {
	id, ok, err := s.kv.Get(ctx, keyActiveID)
	if err != nil || !ok {
		return "", err
	}
	return strings.TrimSpace(id), nil
}

func (s *Store) saveAccounts(ctx context.Context, accounts []types.Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyAccounts, string(data))
}

func indexOf(accounts []types.Account, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, account := range accounts {
		if account.ID == id {
			return i
		}
	}
	return -1
}
