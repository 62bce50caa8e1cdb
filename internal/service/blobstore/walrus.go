package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"zkmsg/internal/errs"
)

// maxBlobSize bounds aggregator responses.
const maxBlobSize = 10 << 20

type (
	// WalrusStore talks to a Walrus publisher for writes and an aggregator
	// for reads.
	WalrusStore struct {
		publisher  string
		aggregator string
		client     *http.Client
	}

	storeResponse struct {
		NewlyCreated *struct {
			BlobObject struct {
				BlobID string `json:"blobId"`
			} `json:"blobObject"`
		} `json:"newlyCreated"`
		AlreadyCertified *struct {
			BlobID string `json:"blobId"`
		} `json:"alreadyCertified"`
	}
)

func NewWalrusStore(publisherURL, aggregatorURL string, timeout time.Duration) *WalrusStore {
	return &WalrusStore{
		publisher:  strings.TrimRight(publisherURL, "/"),
		aggregator: strings.TrimRight(aggregatorURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

func (w *WalrusStore) Put(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, w.publisher+"/v1/blobs", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrBackendUnavailable, err, "walrus put")
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", errs.Wrap(errs.ErrBackendUnavailable, nil, fmt.Sprintf("walrus put: status %d", resp.StatusCode))
	}

	var sr storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", errs.Wrap(errs.ErrBackendUnavailable, err, "walrus put: decode response")
	}

	switch {
	case sr.NewlyCreated != nil && sr.NewlyCreated.BlobObject.BlobID != "":
		return sr.NewlyCreated.BlobObject.BlobID, nil
	case sr.AlreadyCertified != nil && sr.AlreadyCertified.BlobID != "":
		return sr.AlreadyCertified.BlobID, nil
	}
	return "", errs.Wrap(errs.ErrBackendUnavailable, nil, "walrus put: response has no blob id")
}

func (w *WalrusStore) Get(ctx context.Context, blobID string) ([]byte, error) {
	if blobID == "" {
		return nil, errs.Validation("empty blob id")
	}
	u := w.aggregator + "/v1/blobs/" + url.PathEscape(blobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "walrus get")
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: blob %s", errs.ErrNotFound, blobID)
	case resp.StatusCode/100 != 2:
		return nil, errs.Wrap(errs.ErrBackendUnavailable, nil, fmt.Sprintf("walrus get: status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, err, "walrus get: read body")
	}
	if len(data) > maxBlobSize {
		return nil, errs.Wrap(errs.ErrBackendUnavailable, nil, "walrus get: blob too large")
	}
	return data, nil
}
