package firehose

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/austinlparker/bsky-bracket/repositories"
	"github.com/gorilla/websocket"
)

const serviceName = "firehose"

// cursorSaveEvery bounds how much of the stream is replayed after a crash.
const cursorSaveEvery = 100

// EventHandler receives decoded firehose events. Implemented by
// services.IngestService.
type EventHandler interface {
	HandlePost(ctx context.Context, uri, cid, authorDID string, indexedAt time.Time) error
	HandleLike(ctx context.Context, subjectURI string, delta int) error
	HandlePostDelete(ctx context.Context, uri string) error
}

// event is one firehose frame. TimeUS is the stream cursor in microseconds.
type event struct {
	Kind    string `json:"kind"`
	TimeUS  int64  `json:"time_us"`
	DID     string `json:"did"`
	URI     string `json:"uri"`
	CID     string `json:"cid"`
	Subject string `json:"subject"`
	Delta   int    `json:"delta"`
}

// Client consumes the post/like firehose over a websocket, dispatches events
// to the handler and persists a resume cursor so a restart replays at most a
// short tail of the stream.
type Client struct {
	url            string
	handler        EventHandler
	subState       repositories.SubStateRepository
	reconnectDelay time.Duration
	logger         *slog.Logger
}

func NewClient(rawURL string, handler EventHandler, subState repositories.SubStateRepository, reconnectDelay time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:            rawURL,
		handler:        handler,
		subState:       subState,
		reconnectDelay: reconnectDelay,
		logger:         logger.With(slog.String("component", "firehose")),
	}
}

// Run blocks until ctx is cancelled, reconnecting after every stream failure.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			c.logger.Error("firehose stream failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			c.logger.Info("firehose client stopped")
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) consume(ctx context.Context) error {
	cursor, err := c.subState.GetCursor(ctx, serviceName)
	if err != nil {
		return err
	}

	dialURL, err := c.dialURL(cursor)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, dialURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial firehose at %s: %w", c.url, err)
	}
	defer conn.Close()

	c.logger.Info("firehose connected", slog.Int64("cursor", cursor))

	// Unblocks ReadMessage on shutdown. The done channel releases the
	// watcher when this connection ends, so reconnects do not pile up
	// goroutines waiting on a long-lived context.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var sinceSave int
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				c.saveCursor(context.Background(), cursor)
				return nil
			}
			c.saveCursor(ctx, cursor)
			return fmt.Errorf("failed to read firehose frame: %w", err)
		}

		var evt event
		if err := json.Unmarshal(message, &evt); err != nil {
			c.logger.Warn("skipping malformed firehose frame", slog.Any("error", err))
			continue
		}

		if err := c.dispatch(ctx, &evt); err != nil {
			c.logger.Error("failed to apply firehose event",
				slog.String("kind", evt.Kind),
				slog.String("uri", evt.URI),
				slog.Any("error", err),
			)
		}

		if evt.TimeUS > cursor {
			cursor = evt.TimeUS
		}
		sinceSave++
		if sinceSave >= cursorSaveEvery {
			c.saveCursor(ctx, cursor)
			sinceSave = 0
		}
	}
}

func (c *Client) dispatch(ctx context.Context, evt *event) error {
	switch evt.Kind {
	case "post":
		indexedAt := time.UnixMicro(evt.TimeUS).UTC()
		return c.handler.HandlePost(ctx, evt.URI, evt.CID, evt.DID, indexedAt)
	case "like":
		delta := evt.Delta
		if delta == 0 {
			delta = 1
		}
		return c.handler.HandleLike(ctx, evt.Subject, delta)
	case "delete":
		return c.handler.HandlePostDelete(ctx, evt.URI)
	default:
		c.logger.Debug("ignoring firehose event", slog.String("kind", evt.Kind))
		return nil
	}
}

func (c *Client) dialURL(cursor int64) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("invalid firehose url %s: %w", c.url, err)
	}
	if cursor > 0 {
		q := u.Query()
		q.Set("cursor", strconv.FormatInt(cursor, 10))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) saveCursor(ctx context.Context, cursor int64) {
	if cursor <= 0 {
		return
	}
	if err := c.subState.SetCursor(ctx, serviceName, cursor); err != nil {
		c.logger.Error("failed to persist firehose cursor", slog.Int64("cursor", cursor), slog.Any("error", err))
	}
}
