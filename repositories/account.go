//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
)

type IAccountRepository interface {
	Create(account domain.Account) error
	GetByID(id string) (domain.Account, error)
	GetByEmail(email string) (domain.Account, error)
	GetByProviderID(provider domain.Provider, providerID string) (domain.Account, error)
	TouchLastLogin(id string, at time.Time) (domain.Account, error)
}

// AccountRepository persists accounts in BadgerDB under three key families:
//
//	acct:id:{uuid}                     -> account record
//	acct:email:{email}                 -> account id (non-guest only)
//	acct:ext:{provider}:{provider_id}  -> account id (federated only)
//
// Record and index keys are written in the same transaction. Badger commits
// transactions under serializable snapshot isolation, so two concurrent
// inserts of the same email cannot both succeed: the loser either sees the
// index key or fails its commit with ErrConflict. Both cases surface as
// ErrDuplicateEmail.
type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) IAccountRepository {
	return &AccountRepository{db: db}
}

func idKey(id string) []byte { return []byte("acct:id:" + id) }

func emailKey(email string) []byte {
	return []byte("acct:email:" + strings.ToLower(email))
}

func externalKey(provider domain.Provider, providerID string) []byte {
	return []byte(fmt.Sprintf("acct:ext:%s:%s", provider, providerID))
}

// Create persists a new account and its uniqueness indexes atomically.
// Guest accounts carry synthesized placeholder emails and are excluded from
// the email index; every guest insert is a brand-new record.
func (r *AccountRepository) Create(account domain.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if !account.IsGuest && account.Email != "" {
			if _, err := txn.Get(emailKey(account.Email)); err == nil {
				return apperrors.ErrDuplicateEmail
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(emailKey(account.Email), []byte(account.ID)); err != nil {
				return err
			}
		}

		if account.Federated() {
			if _, err := txn.Get(externalKey(account.Provider, account.ProviderID)); err == nil {
				return apperrors.ErrAccountCreationFailed
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(externalKey(account.Provider, account.ProviderID), []byte(account.ID)); err != nil {
				return err
			}
		}

		return txn.Set(idKey(account.ID), data)
	})

	// A conflicting commit means another writer claimed the same keys while
	// this transaction was in flight. For a local registration that is the
	// duplicate-email race the caller must be told about.
	if errors.Is(err, badger.ErrConflict) {
		if !account.IsGuest && account.Email != "" {
			return apperrors.ErrDuplicateEmail
		}
		return apperrors.ErrAccountCreationFailed
	}
	return err
}

func (r *AccountRepository) GetByID(id string) (domain.Account, error) {
	var account domain.Account
	err := r.db.View(func(txn *badger.Txn) error {
		return readAccount(txn, idKey(id), &account)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Account{}, apperrors.ErrAccountNotFound
	}
	return account, err
}

// GetByEmail resolves the email index, then loads the record it points to.
func (r *AccountRepository) GetByEmail(email string) (domain.Account, error) {
	var account domain.Account
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := readIndex(txn, emailKey(email))
		if err != nil {
			return err
		}
		return readAccount(txn, idKey(id), &account)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Account{}, apperrors.ErrAccountNotFound
	}
	return account, err
}

func (r *AccountRepository) GetByProviderID(provider domain.Provider, providerID string) (domain.Account, error) {
	var account domain.Account
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := readIndex(txn, externalKey(provider, providerID))
		if err != nil {
			return err
		}
		return readAccount(txn, idKey(id), &account)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Account{}, apperrors.ErrAccountNotFound
	}
	return account, err
}

// TouchLastLogin bumps LastLoginAt and returns the updated record.
// It is the only mutation this subsystem performs on existing accounts.
func (r *AccountRepository) TouchLastLogin(id string, at time.Time) (domain.Account, error) {
	var account domain.Account
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := readAccount(txn, idKey(id), &account); err != nil {
			return err
		}
		account.LastLoginAt = at
		data, err := json.Marshal(account)
		if err != nil {
			return err
		}
		return txn.Set(idKey(id), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Account{}, apperrors.ErrAccountNotFound
	}
	return account, err
}

func readAccount(txn *badger.Txn, key []byte, out *domain.Account) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func readIndex(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err != nil {
		return "", err
	}
	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}
