package messenger

import (
	"context"
	"encoding/json"
	"fmt"

	"zkmsg/internal/cryptographic/dh"
	"zkmsg/internal/cryptographic/encryption"
	"zkmsg/internal/cryptographic/keys"
	"zkmsg/internal/cryptographic/signature"
	"zkmsg/internal/errs"
	"zkmsg/internal/metrics"
	"zkmsg/internal/model"
	"zkmsg/internal/protocol/seal"
	"zkmsg/internal/utils/log"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	SendRequest struct {
		OrderID   string `json:"orderId"`
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
		Message   string `json:"message"`
	}

	// SendResult is returned to the sender only. EphemeralPrivateKey is the
	// decryption secret; it is not stored anywhere. When Sealed is set the
	// recipient can also recover it from the index.
	SendResult struct {
		Record              *model.MessageRecord `json:"record"`
		Envelope            *model.Envelope      `json:"envelope"`
		EphemeralPrivateKey string               `json:"ephemeralPrivateKey"`
		Sealed              bool                 `json:"sealed"`
	}
)

func (r *SendRequest) validate() error {
	switch {
	case r.OrderID == "":
		return errs.Validation("orderId is empty")
	case r.Sender == "":
		return errs.Validation("sender is empty")
	case r.Recipient == "":
		return errs.Validation("recipient is empty")
	case r.Message == "":
		return errs.Validation("message is empty")
	}
	return nil
}

// Send proves, encrypts and stores a message under a fresh ephemeral key
// pair. The envelope moves pending, sending, sent; on any failure it ends
// failed and no index record exists.
func (s *Service) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	env := &model.Envelope{
		OrderID:   req.OrderID,
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Status:    model.InitialStatus,
	}

	res, err := s.send(ctx, req, env)
	if err != nil {
		env.Status, _ = env.Status.Transition(model.StatusFailed)
		metrics.MessagesTotal.WithLabelValues("send_failed").Inc()
		log.Warn("send failed",
			zap.String("orderId", req.OrderID),
			zap.String("sender", req.Sender),
			zap.String("recipient", req.Recipient),
			zap.String("status", string(env.Status)),
			zap.Error(err))
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues("sent").Inc()
	return res, nil
}

func (s *Service) send(ctx context.Context, req *SendRequest, env *model.Envelope) (*SendResult, error) {
	ephemeral, err := keys.GenerateKeyPair(s.hasher)
	if err != nil {
		return nil, err
	}

	proofCtx := ctx
	if s.proofTimeout > 0 {
		var cancel context.CancelFunc
		proofCtx, cancel = context.WithTimeout(ctx, s.proofTimeout)
		defer cancel()
	}
	pd, err := s.gateway.GenerateProof(proofCtx, req.Message, ephemeral.PublicKey, ephemeral.PrivateKey)
	if err != nil {
		return nil, err
	}

	payload, err := encryption.Encrypt(req.Message, ephemeral.PrivateKey)
	if err != nil {
		return nil, err
	}

	env.EncryptedMessage = payload
	env.Proof = pd.Proof
	env.PublicSignals = pd.PublicSignals
	env.Commitment = pd.Commitment
	env.EphemeralPublicKey = ephemeral.PublicKey
	env.Timestamp = pd.Timestamp

	sealed, err := s.sealFor(ctx, req.Recipient, ephemeral)
	if err != nil {
		return nil, err
	}

	if err := advance(env, model.StatusSending); err != nil {
		return nil, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	blobID, err := s.blobs.Put(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := advance(env, model.StatusSent); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	rec := &model.MessageRecord{
		ID:                 uuid.NewString(),
		OrderID:            env.OrderID,
		Sender:             env.Sender,
		Recipient:          env.Recipient,
		BlobID:             blobID,
		EphemeralPublicKey: env.EphemeralPublicKey,
		Timestamp:          env.Timestamp,
		Status:             env.Status,
		SealedSecret:       sealed,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.index.Insert(ctx, rec); err != nil {
		// the blob stays behind; blob stores here are write-once
		return nil, err
	}

	log.Info("message sent",
		zap.String("id", rec.ID),
		zap.String("orderId", rec.OrderID),
		zap.String("blobId", blobID),
		zap.Bool("sealed", sealed != nil))

	s.notify(ctx, rec)

	return &SendResult{
		Record:              rec,
		Envelope:            env,
		EphemeralPrivateKey: ephemeral.PrivateKey,
		Sealed:              sealed != nil,
	}, nil
}

// sealFor seals the ephemeral secret to the recipient's registered exchange
// key. An unregistered recipient gets nil and must receive the secret out of
// band.
func (s *Service) sealFor(ctx context.Context, recipient string, ephemeral *model.KeyPair) (*model.SealedSecret, error) {
	p, err := s.participants.GetByName(ctx, recipient)
	if err != nil {
		return nil, err
	}
	if p == nil || len(p.Keys.ExchangeKey) == 0 {
		return nil, nil
	}
	if !signature.ED25519Verify(p.Keys.IdentityKey, p.Keys.ExchangeKey, p.Keys.Signature) {
		return nil, errs.Wrap(errs.ErrCryptographic, nil, fmt.Sprintf("exchange key of %s is not signed by its identity key", recipient))
	}
	pub, err := dh.ToKey(p.Keys.ExchangeKey)
	if err != nil {
		return nil, err
	}
	return seal.Seal(pub, []byte(ephemeral.PrivateKey), []byte(ephemeral.PublicKey))
}

func (s *Service) notify(ctx context.Context, rec *model.MessageRecord) {
	if s.notifier == nil {
		return
	}
	n := &model.Notification{
		Type:               "message",
		ID:                 rec.ID,
		OrderID:            rec.OrderID,
		Sender:             rec.Sender,
		Recipient:          rec.Recipient,
		BlobID:             rec.BlobID,
		EphemeralPublicKey: rec.EphemeralPublicKey,
		Timestamp:          rec.Timestamp,
		SealedSecret:       rec.SealedSecret,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Warn("notify recipient failed", zap.String("id", rec.ID), zap.Error(err))
	}
}

func advance(env *model.Envelope, next model.Status) error {
	st, err := env.Status.Transition(next)
	if err != nil {
		return err
	}
	env.Status = st
	return nil
}
