package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"zkmsg/internal/cryptographic/encryption"
	"zkmsg/internal/cryptographic/field"
	"zkmsg/internal/cryptographic/keys"
	"zkmsg/internal/errs"
	"zkmsg/internal/metrics"
	"zkmsg/internal/model"
	"zkmsg/internal/protocol/zkproof"
	"zkmsg/internal/utils/log"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type (
	RetrieveResult struct {
		Message    string `json:"message"`
		Sender     string `json:"sender"`
		Recipient  string `json:"recipient"`
		OrderID    string `json:"orderId"`
		Commitment string `json:"commitment"`
		Timestamp  int64  `json:"timestamp"`
	}

	ListedMessage struct {
		Record   *model.MessageRecord `json:"record"`
		Envelope *model.Envelope      `json:"envelope"`
	}
)

// Retrieve fetches a blob and releases its plaintext only when the proof
// verifies, the proof's public inputs are the envelope's key and timestamp,
// secret opens the payload, the commitment matches within the replay window
// and the proven message hash is the plaintext's.
func (s *Service) Retrieve(ctx context.Context, blobID, secret string) (*RetrieveResult, error) {
	if blobID == "" {
		return nil, errs.Validation("blobId is empty")
	}
	if secret == "" {
		return nil, errs.Validation("privateKey is empty")
	}

	env, err := s.loadEnvelope(ctx, blobID)
	if err != nil {
		return nil, err
	}

	res, err := s.open(env, secret)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("retrieve_rejected").Inc()
		log.Warn("retrieve rejected", zap.String("blobId", blobID), zap.Error(err))
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues("retrieved").Inc()
	return res, nil
}

func (s *Service) open(env *model.Envelope, secret string) (*RetrieveResult, error) {
	ok, err := s.gateway.VerifyProof(env.Proof, env.PublicSignals)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrInvalidProof
	}

	pk, err := field.ScalarFromHex(env.EphemeralPublicKey)
	if err != nil {
		return nil, err
	}
	if env.PublicSignals[1] != field.ToDecimal(pk) || env.PublicSignals[2] != strconv.FormatInt(env.Timestamp, 10) {
		return nil, fmt.Errorf("%w: public signals do not belong to this envelope", errs.ErrInvalidProof)
	}

	match, err := keys.Matches(s.hasher, env.EphemeralPublicKey, secret)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, fmt.Errorf("%w: secret does not belong to the ephemeral key", errs.ErrDecryption)
	}

	plaintext, err := encryption.Decrypt(env.EncryptedMessage, secret)
	if err != nil {
		return nil, err
	}

	commitments := s.gateway.Commitments()
	now := s.now().Unix()
	if !commitments.InWindow(env.Timestamp, now) {
		return nil, fmt.Errorf("%w: sent at %d", errs.ErrStaleMessage, env.Timestamp)
	}
	ok, err = commitments.Verify(plaintext, env.EphemeralPublicKey, env.Commitment, env.Timestamp, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrCommitmentMismatch
	}

	if field.ToDecimal(s.hasher.Hash(field.ScalarFromString(plaintext))) != env.PublicSignals[0] {
		return nil, fmt.Errorf("%w: proven message hash differs", errs.ErrInvalidProof)
	}

	return &RetrieveResult{
		Message:    plaintext,
		Sender:     env.Sender,
		Recipient:  env.Recipient,
		OrderID:    env.OrderID,
		Commitment: env.Commitment,
		Timestamp:  env.Timestamp,
	}, nil
}

func (s *Service) loadEnvelope(ctx context.Context, blobID string) (*model.Envelope, error) {
	data, err := s.blobs.Get(ctx, blobID)
	if err != nil {
		return nil, err
	}
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: blob %s: %v", errs.ErrMalformedPayload, blobID, err)
	}
	if env.Proof == nil || env.EncryptedMessage == nil || len(env.PublicSignals) != zkproof.NumPublic {
		return nil, fmt.Errorf("%w: blob %s is not a message envelope", errs.ErrMalformedPayload, blobID)
	}
	return &env, nil
}

// List returns participant's messages, newest first, each with its envelope.
// Messages whose blob cannot be loaded are skipped.
func (s *Service) List(ctx context.Context, participant, orderIDPrefix string) ([]*ListedMessage, error) {
	if participant == "" {
		return nil, errs.Validation("participant is empty")
	}

	recs, err := s.index.FindByParticipant(ctx, participant, orderIDPrefix)
	if err != nil {
		return nil, err
	}

	out := make([]*ListedMessage, len(recs))
	var g errgroup.Group
	g.SetLimit(listConcurrency)
	for i, rec := range recs {
		g.Go(func() error {
			env, err := s.loadEnvelope(ctx, rec.BlobID)
			if err != nil {
				log.Warn("skip message with unreadable blob",
					zap.String("id", rec.ID),
					zap.String("blobId", rec.BlobID),
					zap.Error(err))
				return nil
			}
			// the index is authoritative for status
			env.Status = rec.Status
			out[i] = &ListedMessage{Record: rec, Envelope: env}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "list messages")
	}

	res := out[:0]
	for _, m := range out {
		if m != nil {
			res = append(res, m)
		}
	}
	return res, nil
}
