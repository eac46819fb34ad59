// Package badgerdb implements storage.MessageStorage on top of BadgerDB.
//
// Messages are keyed as "conv:{low}:{high}:{createdAt}:{id}" where low/high
// is the lexicographically ordered pair of participants and both numbers are
// zero-padded to 19 digits, so a prefix scan yields a conversation already
// sorted by createdAt then id.
package badgerdb

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	sequenceKey       = "seq:messages"
	sequenceBandwidth = 100
)

// Storage is a BadgerDB-backed message log
type Storage struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

// Option configures Storage
type Option func(*Storage)

// WithClock overrides the time source used for createdAt
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// New opens (or creates) a Badger database at path.
// An empty path opens an in-memory database.
func New(path string, logger *slog.Logger, opts ...Option) (*Storage, error) {
	options := badger.DefaultOptions(path).WithLogger(&badgerLogger{log: logger})
	if path == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init message sequence: %w", err)
	}

	s := &Storage{db: db, seq: seq, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close releases the id sequence and closes the database
func (s *Storage) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to release sequence: %w", err)
	}
	return s.db.Close()
}

// badgerLogger направляет внутренние логи badger в slog
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
