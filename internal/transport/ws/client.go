// Package ws owns the websocket session of one navigation agent: the
// HELLO/WELCOME handshake, a writer goroutine with deadlines, and a reader
// loop that routes typed messages onto channels.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxelnav.ai/internal/protocol"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	readTimeout      = 60 * time.Second
)

type Client struct {
	conn *websocket.Conn
	log  *log.Logger

	welcome protocol.WelcomeMsg

	obs  chan protocol.ObsMsg
	acks chan protocol.AckMsg
	out  chan []byte

	ctx     context.Context
	cancel  context.CancelFunc
	closeMu sync.Once
}

// Dial connects, performs the handshake and starts the pumps. The returned
// client is ready to consume OBS messages.
func Dial(ctx context.Context, url, agentName string, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       agentName,
		Capabilities: protocol.HelloCapabilities{
			DeltaVoxels: true,
			MaxQueue:    8,
		},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ws send HELLO: %w", err)
	}

	welcome, err := awaitWelcome(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:    conn,
		log:     logger,
		welcome: welcome,
		obs:     make(chan protocol.ObsMsg, 8),
		acks:    make(chan protocol.AckMsg, 8),
		out:     make(chan []byte, 8),
		ctx:     cctx,
		cancel:  cancel,
	}
	go c.writeLoop()
	go c.readLoop()
	return c, nil
}

func awaitWelcome(conn *websocket.Conn) (protocol.WelcomeMsg, error) {
	deadline := time.Now().Add(handshakeTimeout)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return protocol.WelcomeMsg{}, fmt.Errorf("ws await WELCOME: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.Type != protocol.TypeWelcome {
			continue
		}
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return protocol.WelcomeMsg{}, fmt.Errorf("ws decode WELCOME: %w", err)
		}
		if w.ProtocolVersion != protocol.Version {
			return protocol.WelcomeMsg{}, fmt.Errorf("ws protocol version %q, want %q", w.ProtocolVersion, protocol.Version)
		}
		return w, nil
	}
	return protocol.WelcomeMsg{}, fmt.Errorf("ws handshake timeout")
}

func (c *Client) Welcome() protocol.WelcomeMsg  { return c.welcome }
func (c *Client) Obs() <-chan protocol.ObsMsg   { return c.obs }
func (c *Client) Acks() <-chan protocol.AckMsg  { return c.acks }
func (c *Client) Done() <-chan struct{}         { return c.ctx.Done() }

// SendAct enqueues one action batch. A full queue drops the oldest pending
// message: actions are per-tick and a fresh batch supersedes a stale one.
func (c *Client) SendAct(act protocol.ActMsg) error {
	act.Type = protocol.TypeAct
	act.ProtocolVersion = protocol.Version
	b, err := json.Marshal(act)
	if err != nil {
		return err
	}
	for {
		select {
		case <-c.ctx.Done():
			return fmt.Errorf("ws: connection closed")
		case c.out <- b:
			return nil
		default:
			select {
			case <-c.out:
			default:
			}
		}
	}
}

func (c *Client) Close() error {
	var err error
	c.closeMu.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Printf("write: %v", err)
				c.cancel()
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	defer c.cancel()
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				c.log.Printf("read: %v", err)
			}
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			// Stale observations are worthless; keep only the newest.
			select {
			case c.obs <- obs:
			default:
				select {
				case <-c.obs:
				default:
				}
				select {
				case c.obs <- obs:
				default:
				}
			}
		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			select {
			case c.acks <- ack:
			default:
			}
		}
	}
}
