package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"zkmsg/internal/model"
	"zkmsg/internal/service/messenger"

	"github.com/gorilla/websocket"
)

// Client talks to a zkmsg server over its JSON API.
type Client struct {
	base *url.URL
	http *http.Client
}

func NewClient(server string) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", server)
	}
	return &Client{base: u, http: &http.Client{Timeout: 2 * time.Minute}}, nil
}

func (c *Client) Register(ctx context.Context, name string, keys model.ParticipantKeys) error {
	return c.do(ctx, http.MethodPut, "/api/participants/"+url.PathEscape(name), nil, keys, nil)
}

func (c *Client) Send(ctx context.Context, req *messenger.SendRequest) (*messenger.SendResult, error) {
	var res messenger.SendResult
	if err := c.do(ctx, http.MethodPost, "/api/messages", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Retrieve(ctx context.Context, blobID, secret string) (*messenger.RetrieveResult, error) {
	body := map[string]string{"blobId": blobID, "privateKey": secret}
	var res messenger.RetrieveResult
	if err := c.do(ctx, http.MethodPost, "/api/messages/retrieve", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) List(ctx context.Context, participant, orderID string) ([]*messenger.ListedMessage, error) {
	q := url.Values{"participant": []string{participant}}
	if orderID != "" {
		q.Set("orderId", orderID)
	}
	var res []*messenger.ListedMessage
	if err := c.do(ctx, http.MethodGet, "/api/messages", q, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, "/api/messages/"+url.PathEscape(id)+"/status", nil, body, nil)
}

// Subscribe opens the notification socket for name.
func (c *Client) Subscribe(ctx context.Context, name string) (*websocket.Conn, error) {
	u := *c.base
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"participant": []string{name}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscribe: %s: %w", resp.Status, err)
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
