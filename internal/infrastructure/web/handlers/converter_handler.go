package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ratewise-service/internal/application/dto"
	"ratewise-service/internal/application/services"
	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/metrics"
)

const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingInterval   = (PongWait * 9) / 10
	MaxMessageSize = 4096

	sendBufferSize = 32
)

var ErrUnknownCommand = errors.New("unknown converter command")

// ConverterOptions configura las sesiones creadas por el handler
type ConverterOptions struct {
	Tracked  []entities.CurrencyCode
	RateType entities.RateType
	Frames   interfaces.FrameScheduler
	Budget   time.Duration
	Observer interfaces.Observer
	// CheckOrigin nil aplica la verificación same-origin de gorilla/websocket
	CheckOrigin func(r *http.Request) bool
}

// ConverterHandler expone el conversor interactivo sobre websocket
type ConverterHandler struct {
	hub      *ConverterHub
	source   interfaces.RateSource
	calc     *services.Calculator
	opts     ConverterOptions
	upgrader websocket.Upgrader
}

// NewConverterHandler crea el handler del websocket del conversor
func NewConverterHandler(hub *ConverterHub, source interfaces.RateSource, calc *services.Calculator, opts ConverterOptions) *ConverterHandler {
	return &ConverterHandler{
		hub:    hub,
		source: source,
		calc:   calc,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
	}
}

// Converter maneja GET /ws/converter
func (h *ConverterHandler) Converter(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade ya respondió con el error HTTP
		logging.WarnWithError(r.Context(), "Websocket upgrade failed", err, nil)
		return
	}

	sessionID := logging.GenerateSessionID()
	ctx := logging.WithSessionID(r.Context(), sessionID)
	client := newConverterClient(conn)

	var session *services.ConverterSession
	presenter := interfaces.PresenterFunc(func(ctx context.Context, rows []entities.FormattedRow) {
		state := session.State()
		client.enqueue(ctx, dto.ConverterEvent{Type: dto.EventRows, Rows: rows, State: &state})
	})
	session = services.NewConverterSession(sessionID, h.calc, presenter, services.SessionOptions{
		Tracked:  h.opts.Tracked,
		RateType: h.opts.RateType,
		Frames:   h.opts.Frames,
		Budget:   h.opts.Budget,
		Observer: h.opts.Observer,
	})

	h.hub.register(session, func() { _ = conn.Close() })
	metrics.ConverterSessionOpened()
	logging.Info(ctx, "Converter session opened", logging.Fields{
		"remote_ip": r.RemoteAddr,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.writePump()
	}()

	defer func() {
		h.hub.unregister(sessionID)
		session.Close()
		client.close()
		wg.Wait()
		_ = conn.Close()
		metrics.ConverterSessionClosed()
		logging.Info(ctx, "Converter session closed", nil)
	}()

	h.loadSnapshot(ctx, session, client)
	h.readLoop(ctx, session, client)
}

// loadSnapshot usa el último snapshot publicado o lo pide a la fuente
func (h *ConverterHandler) loadSnapshot(ctx context.Context, session *services.ConverterSession, client *converterClient) {
	snapshot, ok := h.hub.Latest()
	if !ok {
		var err error
		snapshot, err = h.source.FetchResource(ctx, entities.LatestResource())
		if err != nil {
			logging.WarnWithError(ctx, "Converter session started without rates", err, nil)
			client.enqueue(ctx, errorEvent("SOURCE_UNAVAILABLE", "Latest rates are not available"))
			// las filas salen igual, con el indicador de sin datos
			session.Recalculate(ctx)
			return
		}
	}
	session.SetSnapshot(ctx, snapshot)
}

func (h *ConverterHandler) readLoop(ctx context.Context, session *services.ConverterSession, client *converterClient) {
	conn := client.conn
	conn.SetReadLimit(MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.WarnWithError(ctx, "Converter connection closed unexpectedly", err, nil)
			}
			return
		}

		var cmd dto.ConverterCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			client.enqueue(ctx, errorEvent("INVALID_MESSAGE", "Message must be a JSON command"))
			continue
		}

		if err := h.handleCommand(ctx, session, client, cmd); err != nil {
			logging.Debug(ctx, "Converter command rejected", logging.Fields{
				"command":          cmd.Type,
				logging.FieldError: err.Error(),
			})
			code := "INVALID_PARAMETER"
			if errors.Is(err, ErrUnknownCommand) {
				code = "UNKNOWN_COMMAND"
			}
			client.enqueue(ctx, errorEvent(code, err.Error()))
		}
	}
}

func (h *ConverterHandler) handleCommand(ctx context.Context, session *services.ConverterSession, client *converterClient, cmd dto.ConverterCommand) error {
	switch cmd.Type {
	case dto.CommandSetFromAmount:
		session.SetFromAmount(ctx, cmd.Amount)
	case dto.CommandSetToAmount:
		session.SetToAmount(ctx, cmd.Amount)
	case dto.CommandSetMultiAmount:
		code, err := entities.ParseCurrencyCode(cmd.Currency)
		if err != nil {
			return err
		}
		return session.SetMultiAmount(ctx, code, cmd.Amount)
	case dto.CommandSetPair:
		from, err := entities.ParseCurrencyCode(cmd.From)
		if err != nil {
			return err
		}
		to, err := entities.ParseCurrencyCode(cmd.To)
		if err != nil {
			return err
		}
		return session.SetPair(ctx, from, to)
	case dto.CommandSetMode:
		mode, err := services.ParseConverterMode(cmd.Mode)
		if err != nil {
			return err
		}
		session.SetMode(ctx, mode)
	case dto.CommandSetRateType:
		rateType, err := entities.ParseRateType(cmd.RateType)
		if err != nil {
			return err
		}
		return session.SetRatePreference(ctx, rateType)
	case dto.CommandQuickAmount:
		session.QuickAmount(ctx, cmd.Value)
	case dto.CommandSwap:
		session.SwapCurrencies(ctx)
	case dto.CommandAddToHistory:
		if _, err := session.AddToHistory(ctx); err != nil {
			return err
		}
		history, err := session.History(ctx)
		if err != nil {
			return fmt.Errorf("failed to read conversion history: %w", err)
		}
		client.enqueue(ctx, dto.ConverterEvent{Type: dto.EventHistory, History: history})
	case dto.CommandGetState:
		state := session.State()
		client.enqueue(ctx, dto.ConverterEvent{Type: dto.EventState, State: &state})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

func errorEvent(code, message string) dto.ConverterEvent {
	return dto.ConverterEvent{Type: dto.EventError, Error: dto.NewErrorResponse(code, message)}
}

// converterClient serializa las escrituras a la conexión en una sola goroutine
type converterClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConverterClient(conn *websocket.Conn) *converterClient {
	return &converterClient{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// enqueue nunca bloquea: si el buffer está lleno el mensaje se descarta
func (c *converterClient) enqueue(ctx context.Context, event dto.ConverterEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logging.ErrorWithError(ctx, "Failed to encode converter event", err, logging.Fields{
			"event": event.Type,
		})
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- payload:
	default:
		metrics.RecordWebSocketMessageDrop()
		logging.Warn(ctx, "Converter event dropped, client too slow", logging.Fields{
			"event": event.Type,
		})
	}
}

func (c *converterClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *converterClient) writePump() {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				// cerrar la conexión desbloquea el readLoop
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}
