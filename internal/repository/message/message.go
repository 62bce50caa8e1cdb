// Package message is the message index: one record per message, visible to
// both its sender and its recipient.
package message

import (
	"context"

	"zkmsg/internal/model"
)

// Repository stores message records. Lookups of a missing record return
// (nil, nil).
type Repository interface {
	Insert(ctx context.Context, rec *model.MessageRecord) error
	// FindByParticipant returns records where participant is sender or
	// recipient and the order id starts with orderIDPrefix, newest first.
	FindByParticipant(ctx context.Context, participant, orderIDPrefix string) ([]*model.MessageRecord, error)
	FindByID(ctx context.Context, id string) (*model.MessageRecord, error)
	// UpdateStatus applies a status transition and returns the updated record.
	UpdateStatus(ctx context.Context, id string, next model.Status) (*model.MessageRecord, error)
}
