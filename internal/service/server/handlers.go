package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"zkmsg/internal/errs"
	"zkmsg/internal/model"
	"zkmsg/internal/service/messenger"
	"zkmsg/internal/utils/log"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

type (
	retrieveRequest struct {
		BlobID     string `json:"blobId"`
		PrivateKey string `json:"privateKey"`
	}

	statusRequest struct {
		Status string `json:"status"`
	}

	verifyRequest struct {
		Proof         *model.Proof        `json:"proof"`
		PublicSignals model.PublicSignals `json:"publicSignals"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func (s *HttpServer) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *HttpServer) GenerateKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kp, err := s.messenger.GenerateKeys()
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, kp)
	}
}

func (s *HttpServer) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messenger.SendRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := s.messenger.Send(r.Context(), &req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *HttpServer) ListMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		participant := q.Get("participant")
		if participant == "" {
			participant = q.Get("publicKey")
		}

		msgs, err := s.messenger.List(r.Context(), participant, q.Get("orderId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if msgs == nil {
			msgs = []*messenger.ListedMessage{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func (s *HttpServer) RetrieveMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req retrieveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		res, err := s.messenger.Retrieve(r.Context(), req.BlobID, req.PrivateKey)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// UpdateStatus moves a message forward along its lifecycle. Backward moves
// and moves out of read or failed are answered with 400.
func (s *HttpServer) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		rec, err := s.messenger.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *HttpServer) VerifyProof() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		ok, err := s.messenger.VerifyProof(req.Proof, req.PublicSignals)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"verified": ok})
	}
}

func (s *HttpServer) RegisterParticipant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var keys model.ParticipantKeys
		if err := decodeJSON(w, r, &keys); err != nil {
			writeError(w, r, err)
			return
		}

		p, err := s.messenger.RegisterParticipant(r.Context(), mux.Vars(r)["name"], keys)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *HttpServer) GetParticipantKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.messenger.ParticipantKeys(r.Context(), mux.Vars(r)["name"])
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Keys)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validation("request body is empty")
		}
		return errs.Validation("malformed request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write response failed", zap.Error(err))
	}
}

// writeError maps err to its status. Internal failures are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	} else {
		log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
