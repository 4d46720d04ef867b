// ABOUTME: WebSocket client for WaveGen monitor streams
// ABOUTME: Handles connection, handshake, and message routing
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kb1p/WaveGen/internal/protocol"
	"github.com/kb1p/WaveGen/pkg/audio"
)

const (
	defaultPath      = "/wavegen"
	handshakeTimeout = 5 * time.Second
)

// ErrRejected is returned when the server refuses the connection
var ErrRejected = errors.New("rejected by server")

// Config holds client configuration
type Config struct {
	// ServerAddr is host:port or a full ws:// URL
	ServerAddr string
	ClientID   string
	Name       string
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	chunks chan protocol.AudioChunk
	params chan protocol.StreamParams

	server protocol.ServerHello
	format audio.Format

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		chunks: make(chan protocol.AudioChunk, 100),
		params: make(chan protocol.StreamParams, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Dial connects to a generator and completes the handshake
func Dial(addr, name string) (*Client, error) {
	c := NewClient(Config{ServerAddr: addr, Name: name})
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// streamURL resolves ServerAddr to the websocket URL
func (c *Client) streamURL() (string, error) {
	addr := c.config.ServerAddr
	if strings.Contains(addr, "://") {
		u, err := url.Parse(addr)
		if err != nil {
			return "", fmt.Errorf("invalid server address %q: %w", addr, err)
		}
		if u.Path == "" {
			u.Path = defaultPath
		}
		return u.String(), nil
	}

	u := url.URL{Scheme: "ws", Host: addr, Path: defaultPath}
	return u.String(), nil
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect() error {
	target, err := c.streamURL()
	if err != nil {
		return err
	}
	log.Printf("Connecting to %s", target)

	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello and stream/start
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  protocol.Version,
	}

	if err := c.sendJSON(protocol.Message{Type: protocol.TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	if err := c.expect(protocol.TypeServerHello, &c.server); err != nil {
		return err
	}

	var start protocol.StreamStart
	if err := c.expect(protocol.TypeStreamStart, &start); err != nil {
		return err
	}

	format, err := start.Format()
	if err != nil {
		return fmt.Errorf("unusable stream: %w", err)
	}
	c.format = format

	log.Printf("Handshake complete with %s (%s), stream %s", c.server.Name, c.server.ServerID, format)

	return nil
}

// expect reads one JSON message of the given type into v
func (c *Client) expect(msgType string, v any) error {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", msgType, err)
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", msgType, err)
	}

	if msg.Type == protocol.TypeServerError {
		var serverErr protocol.ServerError
		if err := protocol.DecodePayload(msg.Payload, &serverErr); err != nil {
			return ErrRejected
		}
		return fmt.Errorf("%w: %s (%s)", ErrRejected, serverErr.Message, serverErr.Error)
	}
	if msg.Type != msgType {
		return fmt.Errorf("expected %s, got %s", msgType, msg.Type)
	}

	return protocol.DecodePayload(msg.Payload, v)
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages until the connection ends
func (c *Client) readMessages() {
	defer close(c.chunks)
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("Read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			if end := c.handleJSONMessage(data); end {
				return
			}
		}
	}
}

// handleBinaryMessage handles audio chunks
func (c *Client) handleBinaryMessage(data []byte) {
	chunk, err := protocol.ParseAudioChunk(data)
	if err != nil {
		log.Printf("Dropping binary message: %v", err)
		return
	}

	select {
	case c.chunks <- chunk:
	case <-c.ctx.Done():
	}
}

// handleJSONMessage routes JSON messages and reports whether the stream ended
func (c *Client) handleJSONMessage(data []byte) bool {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return false
	}

	switch msg.Type {
	case protocol.TypeStreamParams:
		var params protocol.StreamParams
		if err := protocol.DecodePayload(msg.Payload, &params); err != nil {
			log.Printf("Failed to decode stream params: %v", err)
			return false
		}
		select {
		case c.params <- params:
		default:
			log.Printf("Params channel full, dropping update")
		}

	case protocol.TypeStreamEnd:
		log.Printf("Server ended the stream")
		return true

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}

	return false
}

// Format returns the stream format announced by the server
func (c *Client) Format() audio.Format {
	return c.format
}

// Server returns the server's hello
func (c *Client) Server() protocol.ServerHello {
	return c.server
}

// Chunks returns audio chunks in stream order. The channel is closed when
// the connection ends.
func (c *Client) Chunks() <-chan protocol.AudioChunk {
	return c.chunks
}

// Params returns generator parameter updates
func (c *Client) Params() <-chan protocol.StreamParams {
	return c.params
}

// SendState reports the local playback state
func (c *Client) SendState(state string) error {
	return c.sendJSON(protocol.Message{
		Type:    protocol.TypeClientState,
		Payload: protocol.ClientState{State: state},
	})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
