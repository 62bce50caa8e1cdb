package message

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"zkmsg/internal/errs"
	"zkmsg/internal/model"
)

// MemoryRepo keeps records in process. It is used by tests and by the
// server when no database is configured.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]*model.MessageRecord
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]*model.MessageRecord)}
}

func (r *MemoryRepo) Insert(_ context.Context, rec *model.MessageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; ok {
		return errs.Validation("duplicate message id %s", rec.ID)
	}
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *MemoryRepo) FindByParticipant(_ context.Context, participant, orderIDPrefix string) ([]*model.MessageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []*model.MessageRecord
	for _, rec := range r.records {
		if rec.Sender != participant && rec.Recipient != participant {
			continue
		}
		if !strings.HasPrefix(rec.OrderID, orderIDPrefix) {
			continue
		}
		cp := *rec
		res = append(res, &cp)
	}

	slices.SortFunc(res, func(a, b *model.MessageRecord) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return res, nil
}

func (r *MemoryRepo) FindByID(_ context.Context, id string) (*model.MessageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, id string, next model.Status) (*model.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", errs.ErrNotFound, id)
	}
	status, err := rec.Status.Transition(next)
	if err != nil {
		return nil, err
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()

	cp := *rec
	return &cp, nil
}
