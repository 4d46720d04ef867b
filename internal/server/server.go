// ABOUTME: Monitor server streaming the generator over websockets
// ABOUTME: Manages listener connections, handshake and per-listener writers
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kb1p/WaveGen/internal/discovery"
	"github.com/kb1p/WaveGen/internal/protocol"
	"github.com/kb1p/WaveGen/internal/version"
	"github.com/kb1p/WaveGen/pkg/audio"
	"github.com/kb1p/WaveGen/pkg/wavegen"
)

const (
	// Path is the websocket endpoint
	Path = "/wavegen"

	// DefaultChunkDuration is the amount of audio per binary message
	DefaultChunkDuration = 20 * time.Millisecond

	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
	helloTimeout  = 5 * time.Second
	sendQueueSize = 100
)

// Config holds server configuration
type Config struct {
	Port          int
	Name          string
	ServerID      string
	EnableMDNS    bool
	Debug         bool
	ChunkDuration time.Duration
}

// Source supplies the stream format and the modulator currently in use.
// Modulator may return nil while nothing is bound; listeners then hear
// silence.
//
// Every listener engine calls the same modulator as local playback, from
// the streamer goroutine. Script globals a modulator changes are therefore
// shared between all streams; only previous is per stream.
type Source interface {
	Format() audio.Format
	Modulator() wavegen.Modulator
}

// Server streams the generator to monitor listeners
type Server struct {
	config Config
	source Source

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Listener management
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Latest stream/params, replayed to new listeners. epoch counts
	// playback starts; listener engines restart when it moves.
	params   protocol.StreamParams
	epoch    uint64
	paramsMu sync.RWMutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected listener
type Client struct {
	ID    string
	Name  string
	Conn  *websocket.Conn
	State string

	// engine renders this listener's copy of the stream
	engine *wavegen.Engine
	pacer  *pacer
	epoch  uint64

	// Output channel for messages
	sendChan chan any

	mu sync.RWMutex
}

// New creates a new server instance
func New(config Config, source Source) *Server {
	if config.ChunkDuration <= 0 {
		config.ChunkDuration = DefaultChunkDuration
	}

	s := &Server{
		config: config,
		source: source,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Monitor streams are meant for trusted local networks
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(Path, s.handleWebSocket)

	return s
}

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called
func (s *Server) Start() error {
	log.Printf("Monitor server starting: %s (ID: %s)", s.config.Name, s.config.ServerID)

	// Start mDNS advertisement if enabled
	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        Path,
			ServerID:    s.config.ServerID,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	// Start audio streaming
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStreamer()
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Monitor server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
		s.Stop()
	}

	s.shutdown()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Monitor server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// shutdown rejects new listeners and says goodbye to connected ones
func (s *Server) shutdown() {
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if err := s.sendMessage(client, protocol.TypeStreamEnd, struct{}{}); err != nil {
			log.Printf("Error sending stream/end to %s: %v", client.Name, err)
			client.Conn.Close()
		}
	}
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// ClientCount returns the number of connected listeners
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// UpdateParams broadcasts the generator parameters to every listener.
// Listeners only receive audio while params.Playing is set, and every
// start of playback restarts their streams from time zero.
func (s *Server) UpdateParams(params protocol.StreamParams) {
	s.paramsMu.Lock()
	if params.Playing && !s.params.Playing {
		s.epoch++
	}
	s.params = params
	s.paramsMu.Unlock()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if err := s.sendMessage(client, protocol.TypeStreamParams, params); err != nil {
			log.Printf("Error sending params to %s: %v", client.Name, err)
		}
	}
}

// playback returns whether the generator is playing and its playback epoch
func (s *Server) playback() (bool, uint64) {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return s.params.Playing, s.epoch
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// readHello waits for and validates client/hello
func readHello(conn *websocket.Conn) (protocol.ClientHello, error) {
	var hello protocol.ClientHello

	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("error reading hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return hello, fmt.Errorf("error unmarshaling message: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return hello, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, msg.Type)
	}
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil {
		return hello, fmt.Errorf("error decoding client hello: %w", err)
	}

	if hello.ClientID == "" {
		return hello, fmt.Errorf("client hello missing client_id")
	}
	if hello.Name == "" {
		return hello, fmt.Errorf("client hello missing name")
	}

	return hello, nil
}

func rejectClient(conn *websocket.Conn, code, message string) {
	data, err := json.Marshal(protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Error: code, Message: message},
	})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.WriteMessage(websocket.TextMessage, data)
}

// handleConnection manages a listener connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		rejectClient(conn, "shutting_down", "Server is shutting down")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		rejectClient(conn, "bad_hello", err.Error())
		return
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	format := s.source.Format()
	engine, err := wavegen.New(format, s.liveModulator(), wavegen.WithDirectFill(wavegen.DefaultBufferDuration))
	if err != nil {
		log.Printf("Failed to create stream engine for %s: %v", hello.Name, err)
		rejectClient(conn, "unsupported_format", err.Error())
		return
	}

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		State:    protocol.StateIdle,
		engine:   engine,
		sendChan: make(chan any, sendQueueSize),
	}

	// Queue the handshake replies before the client becomes visible to
	// the streamer so they precede the first chunk
	serverHello := protocol.ServerHello{
		ServerID:        s.config.ServerID,
		Name:            s.config.Name,
		Version:         protocol.Version,
		Product:         version.Product,
		SoftwareVersion: version.Version,
	}
	s.paramsMu.RLock()
	params := s.params
	client.epoch = s.epoch
	s.paramsMu.RUnlock()

	s.sendMessage(client, protocol.TypeServerHello, serverHello)
	s.sendMessage(client, protocol.TypeStreamStart, protocol.NewStreamStart(format))
	s.sendMessage(client, protocol.TypeStreamParams, params)

	// Check for duplicate client ID and register atomically
	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)
		rejectClient(conn, "duplicate_client_id", "Client ID already connected")
		return
	}
	client.engine.Start()
	client.pacer = newPacer(time.Now(), format.SampleRate)
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	writerDone := make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(writerDone)
		s.clientWriter(client)
	}()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		close(client.sendChan)
		s.clientsMu.Unlock()
		<-writerDone
		log.Printf("Client disconnected: %s", client.Name)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		s.handleClientMessage(client, data)
	}
}

// liveModulator follows whatever modulator the source currently has bound
func (s *Server) liveModulator() wavegen.Modulator {
	return wavegen.ModulatorFunc(func(t, random, previous float64) (float64, error) {
		m := s.source.Modulator()
		if m == nil {
			return 0, nil
		}
		return m.Modulate(t, random, previous)
	})
}

// clientWriter sends queued messages to the listener
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					s.drain(client)
					return
				}
			case protocol.Message:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					s.drain(client)
					return
				}

				// stream/end is the last message; closing unblocks the reader
				if v.Type == protocol.TypeStreamEnd {
					client.Conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"),
						time.Now().Add(writeDeadline))
					s.drain(client)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				s.drain(client)
				return
			}
		}
	}
}

// drain closes a broken connection and discards the queue until the
// reader side unregisters the client
func (s *Server) drain(client *Client) {
	client.Conn.Close()
	for range client.sendChan {
	}
}

// handleClientMessage processes messages from listeners
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeClientState:
		var state protocol.ClientState
		if err := protocol.DecodePayload(msg.Payload, &state); err != nil {
			log.Printf("Error decoding client state: %v", err)
			return
		}

		client.mu.Lock()
		client.State = state.State
		client.mu.Unlock()

		log.Printf("Client %s state: %s", client.Name, state.State)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// sendMessage queues a JSON message for a listener
func (s *Server) sendMessage(client *Client, msgType string, payload any) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary queues binary data for a listener
func (s *Server) sendBinary(client *Client, data []byte) error {
	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
