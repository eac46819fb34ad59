package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophchat/internal/client/storage"
)

// errNoUserID is returned by SaveAuth for a session without an owner
var errNoUserID = errors.New("session without user id")

var sessionKey = []byte("session")

// SaveAuth stores the session of the logged in user.
// When the session belongs to a different user than the stored one,
// the contacts cache of the previous user is dropped in the same transaction.
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if auth == nil || auth.UserID == "" {
		return errNoUserID
	}

	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		prev, err := readSession(bucket)
		if err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
			return err
		}
		if prev != nil && prev.UserID != auth.UserID {
			if _, err := resetContacts(tx); err != nil {
				return err
			}
		}

		if err := bucket.Put(sessionKey, data); err != nil {
			return fmt.Errorf("failed to save auth data: %w", err)
		}
		return nil
	})
}

// GetAuth returns the stored session or storage.ErrAuthNotFound
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	var auth *storage.AuthData

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		var err error
		auth, err = readSession(bucket)
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth, nil
}

// DeleteAuth removes the session together with the contacts cached for it
func (s *Storage) DeleteAuth(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		if bucket.Get(sessionKey) == nil {
			return storage.ErrAuthNotFound
		}
		if err := bucket.Delete(sessionKey); err != nil {
			return fmt.Errorf("failed to delete auth data: %w", err)
		}

		_, err := resetContacts(tx)
		return err
	})
}

// IsAuthenticated reports whether a session exists and its token is still valid
func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	auth, err := s.GetAuth(ctx)
	if errors.Is(err, storage.ErrAuthNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return !auth.Expired(time.Now()), nil
}

func readSession(bucket *bbolt.Bucket) (*storage.AuthData, error) {
	data := bucket.Get(sessionKey)
	if data == nil {
		return nil, storage.ErrAuthNotFound
	}

	auth := &storage.AuthData{}
	if err := json.Unmarshal(data, auth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth data: %w", err)
	}
	return auth, nil
}
