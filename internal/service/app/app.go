package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zkmsg/internal/model"
	"zkmsg/internal/service/messenger"
	"zkmsg/internal/utils/log"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

type (
	App struct {
		app     *tview.Application
		chatbox *tview.TextView
		input   *tview.InputField

		client *Client
		id     *Identity

		peer    string
		orderID string

		conn *websocket.Conn
	}
)

func NewApp(client *Client, id *Identity) *App {
	return &App{
		app:    tview.NewApplication(),
		client: client,
		id:     id,
	}
}

// Run registers the identity, subscribes to notifications and blocks in the
// chat UI until the user quits.
func (c *App) Run(ctx context.Context, peer, orderID string) error {
	c.peer = peer
	c.orderID = orderID

	if err := c.client.Register(ctx, c.id.Name, c.id.Keys()); err != nil {
		return fmt.Errorf("register %s: %w", c.id.Name, err)
	}

	conn, err := c.client.Subscribe(ctx, c.id.Name)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.conn = conn

	go c.listenOnWebsocket(ctx)
	return c.renderUI()
}

func (c *App) Stop() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.app.Stop()
}

// blocking function
func (c *App) renderUI() error {
	c.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	c.chatbox.SetBorder(true).SetTitle(fmt.Sprintf(" %s with %s ", c.orderID, c.peer))

	c.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	c.input.SetBorder(true).SetTitle(" New Message ")

	c.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := c.input.GetText()
		if text == "" {
			return
		}
		c.input.SetText("")
		c.print("[gray]proving...[-]")

		go func(msg string) {
			if err := c.SendMessage(context.Background(), msg); err != nil {
				c.print(fmt.Sprintf("[red]send failed:[-] %s", tview.Escape(err.Error())))
			}
		}(text)
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.chatbox, 0, 1, false).
		AddItem(c.input, 3, 0, true)

	return c.app.SetRoot(layout, true).SetFocus(c.input).Run()
}

func (c *App) print(line string) {
	c.app.QueueUpdateDraw(func() {
		fmt.Fprintln(c.chatbox, line)
		c.chatbox.ScrollToEnd()
	})
}

func (c *App) listenOnWebsocket(ctx context.Context) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug("notification socket closed", zap.Error(err))
			c.conn.Close()
			return
		}

		var n model.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			log.Error("unmarshal notification failed", zap.Error(err))
			continue
		}

		if err := c.ReceiveMessage(ctx, &n); err != nil {
			c.print(fmt.Sprintf("[red]message %s from %s rejected:[-] %s", n.ID, n.Sender, tview.Escape(err.Error())))
		}
	}
}

func (c *App) SendMessage(ctx context.Context, msg string) error {
	res, err := c.client.Send(ctx, &messenger.SendRequest{
		OrderID:   c.orderID,
		Sender:    c.id.Name,
		Recipient: c.peer,
		Message:   msg,
	})
	if err != nil {
		return err
	}

	note := ""
	if !res.Sealed {
		note = fmt.Sprintf(" [gray](%s has no registered keys, secret %s)[-]", c.peer, res.EphemeralPrivateKey)
	}
	c.print(fmt.Sprintf("[yellow]You:[-] %s%s", tview.Escape(msg), note))
	return nil
}

// ReceiveMessage opens the sealed secret, has the server verify and decrypt
// the blob, then marks the message delivered.
func (c *App) ReceiveMessage(ctx context.Context, n *model.Notification) error {
	secret, err := c.id.OpenSecret(n)
	if err != nil {
		return err
	}

	res, err := c.client.Retrieve(ctx, n.BlobID, secret)
	if err != nil {
		return err
	}

	if err := c.client.UpdateStatus(ctx, n.ID, model.StatusDelivered); err != nil {
		log.Warn("mark delivered failed", zap.String("id", n.ID), zap.Error(err))
	}

	at := time.Unix(res.Timestamp, 0).Format(time.Kitchen)
	c.print(fmt.Sprintf("[green]%s[-] [gray]%s %s[-] %s", res.Sender, at, res.OrderID, tview.Escape(res.Message)))
	return nil
}
