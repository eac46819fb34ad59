package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophchat/internal/client/storage"
)

// ReplaceContacts overwrites the cached contact list
func (s *Storage) ReplaceContacts(ctx context.Context, contacts []storage.Contact) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		// Пересоздаем bucket целиком, удаленные на сервере пользователи не должны остаться
		bucket, err := resetContacts(tx)
		if err != nil {
			return err
		}

		for _, c := range contacts {
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to marshal contact: %w", err)
			}
			if err := bucket.Put([]byte(c.ID), data); err != nil {
				return fmt.Errorf("failed to save contact %s: %w", c.ID, err)
			}
		}

		return nil
	})
}

// GetContact returns the cached contact with the given id
func (s *Storage) GetContact(ctx context.Context, id string) (*storage.Contact, error) {
	var contact *storage.Contact

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketContacts)
		if bucket == nil {
			return fmt.Errorf("contacts bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrContactNotFound
		}

		contact = &storage.Contact{}
		return json.Unmarshal(data, contact)
	})
	if err != nil {
		return nil, err
	}

	return contact, nil
}

// FindContact looks a contact up by id, then by case-insensitive email
func (s *Storage) FindContact(ctx context.Context, key string) (*storage.Contact, error) {
	contact, err := s.GetContact(ctx, key)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, storage.ErrContactNotFound) {
		return nil, err
	}

	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketContacts)
		if bucket == nil {
			return fmt.Errorf("contacts bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			var c storage.Contact
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("failed to unmarshal contact %s: %w", k, err)
			}
			if strings.EqualFold(c.Email, key) {
				contact = &c
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, storage.ErrContactNotFound
	}

	return contact, nil
}

// resetContacts пересоздает пустой bucket contacts внутри транзакции
func resetContacts(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	if err := tx.DeleteBucket(bucketContacts); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil, fmt.Errorf("failed to reset contacts bucket: %w", err)
	}
	bucket, err := tx.CreateBucket(bucketContacts)
	if err != nil {
		return nil, fmt.Errorf("failed to create contacts bucket: %w", err)
	}
	return bucket, nil
}
