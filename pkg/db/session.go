package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNilRecord = errors.New("session: nil record")

// Session is a unit of work: records are queued with Add and written in one
// transaction by Commit. A Session belongs to a single request and is not safe
// for concurrent use.
type Session struct {
	db      *gorm.DB
	pending []any
}

func NewSession(conn *gorm.DB) *Session {
	return &Session{db: conn}
}

// Add queues records for insertion. Records must be pointers to gorm models.
func (s *Session) Add(records ...any) {
	s.pending = append(s.pending, records...)
}

func (s *Session) Pending() int {
	return len(s.pending)
}

// Rollback discards every queued record.
func (s *Session) Rollback() {
	s.pending = nil
}

// Commit inserts the queued records in order. On the first failure nothing is
// written. The queue is emptied whether or not the commit succeeds.
func (s *Session) Commit(ctx context.Context) error {
	pending := s.pending
	s.pending = nil
	if len(pending) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range pending {
			if record == nil {
				return ErrNilRecord
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
