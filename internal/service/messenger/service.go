// Package messenger runs the message lifecycle: proving, encrypting and
// storing on send; verifying and decrypting on retrieve.
package messenger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"zkmsg/internal/cryptographic/dh"
	"zkmsg/internal/cryptographic/keys"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/cryptographic/signature"
	"zkmsg/internal/errs"
	"zkmsg/internal/model"
	"zkmsg/internal/protocol/zkproof"
	"zkmsg/internal/repository/message"
	"zkmsg/internal/repository/participant"
	"zkmsg/internal/service/blobstore"
	"zkmsg/internal/utils/log"

	"go.uber.org/zap"
)

// listConcurrency bounds blob fetches per List call.
const listConcurrency = 8

type (
	// Notifier delivers a notification to a connected recipient or queues it.
	Notifier interface {
		Notify(ctx context.Context, n *model.Notification) error
	}

	Service struct {
		hasher       *poseidon.Hasher
		gateway      *zkproof.Gateway
		blobs        blobstore.Store
		index        message.Repository
		participants participant.Repository
		notifier     Notifier
		proofTimeout time.Duration
		now          func() time.Time
	}
)

// NewService wires the lifecycle. notifier may be nil. proofTimeout <= 0
// leaves proof generation bounded by the caller's context only.
func NewService(
	gateway *zkproof.Gateway,
	blobs blobstore.Store,
	index message.Repository,
	participants participant.Repository,
	notifier Notifier,
	proofTimeout time.Duration,
) *Service {
	return &Service{
		hasher:       gateway.Hasher(),
		gateway:      gateway,
		blobs:        blobs,
		index:        index,
		participants: participants,
		notifier:     notifier,
		proofTimeout: proofTimeout,
		now:          time.Now,
	}
}

func (s *Service) GenerateKeys() (*model.KeyPair, error) {
	return keys.GenerateKeyPair(s.hasher)
}

// VerifyProof checks a proof without touching any store.
func (s *Service) VerifyProof(proof *model.Proof, signals model.PublicSignals) (bool, error) {
	return s.gateway.VerifyProof(proof, signals)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*model.MessageRecord, error) {
	if id == "" {
		return nil, errs.Validation("message id is empty")
	}
	next, err := model.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	rec, err := s.index.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}
	log.Info("message status updated", zap.String("id", id), zap.String("status", string(rec.Status)))
	return rec, nil
}

// RegisterParticipant publishes name's exchange key. The exchange key must be
// signed by the identity key, and a registered name keeps its identity key.
func (s *Service) RegisterParticipant(ctx context.Context, name string, pk model.ParticipantKeys) (*model.Participant, error) {
	if name == "" {
		return nil, errs.Validation("participant name is empty")
	}
	if len(pk.IdentityKey) != ed25519.PublicKeySize {
		return nil, errs.Validation("identity key must be %d bytes", ed25519.PublicKeySize)
	}
	if _, err := dh.ToKey(pk.ExchangeKey); err != nil {
		return nil, err
	}
	if !signature.ED25519Verify(pk.IdentityKey, pk.ExchangeKey, pk.Signature) {
		return nil, errs.Wrap(errs.ErrCryptographic, nil, "exchange key signature does not verify")
	}

	existing, err := s.participants.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && !bytes.Equal(existing.Keys.IdentityKey, pk.IdentityKey) {
		return nil, errs.Wrap(errs.ErrCryptographic, nil, fmt.Sprintf("participant %s is registered with another identity key", name))
	}

	p, err := s.participants.Upsert(ctx, name, pk)
	if err != nil {
		return nil, err
	}
	log.Info("participant registered", zap.String("name", name))
	return p, nil
}

func (s *Service) ParticipantKeys(ctx context.Context, name string) (*model.Participant, error) {
	if name == "" {
		return nil, errs.Validation("participant name is empty")
	}
	p, err := s.participants.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: participant %s", errs.ErrNotFound, name)
	}
	return p, nil
}
