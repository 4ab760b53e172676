package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratewise-service/internal/application/dto"
	"ratewise-service/internal/application/services"
	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/infrastructure/frame"
)

type converterFixture struct {
	hub    *ConverterHub
	source *fakeSource
	server *httptest.Server
	conn   *websocket.Conn
}

func newConverterFixture(t *testing.T, publish bool) *converterFixture {
	t.Helper()

	hub := NewConverterHub()
	src := newFakeSource()
	if publish {
		hub.Publish(context.Background(), testSnapshot())
	} else {
		src.err = errors.New("mirrors down")
	}

	handler := NewConverterHandler(hub, src, services.NewCalculator(nil), ConverterOptions{
		Frames: frame.SyncScheduler{},
	})
	server := httptest.NewServer(http.HandlerFunc(handler.Converter))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &converterFixture{hub: hub, source: src, server: server, conn: conn}
}

func (f *converterFixture) send(t *testing.T, payload string) {
	t.Helper()
	require.NoError(t, f.conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func (f *converterFixture) next(t *testing.T) dto.ConverterEvent {
	t.Helper()
	require.NoError(t, f.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := f.conn.ReadMessage()
	require.NoError(t, err)

	var event dto.ConverterEvent
	require.NoError(t, json.Unmarshal(message, &event))
	return event
}

func TestConverterHandler_InitialRows(t *testing.T) {
	f := newConverterFixture(t, true)

	event := f.next(t)
	require.Equal(t, dto.EventRows, event.Type)
	require.Len(t, event.Rows, 2)
	assert.Equal(t, entities.TWD, event.Rows[0].Currency)
	assert.True(t, event.Rows[0].IsSource)
	assert.Equal(t, entities.JPY, event.Rows[1].Currency)
	require.NotNil(t, event.State)
	assert.Equal(t, "1000", event.State.FromAmount)

	// el snapshot publicado evita ir a la fuente
	assert.Zero(t, f.source.callCount())
	assert.Eventually(t, func() bool { return f.hub.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestConverterHandler_Commands(t *testing.T) {
	f := newConverterFixture(t, true)
	f.next(t)

	t.Run("set_from_amount recalcula", func(t *testing.T) {
		f.send(t, `{"type":"set_from_amount","amount":"2,000"}`)
		event := f.next(t)
		require.Equal(t, dto.EventRows, event.Type)
		assert.InDelta(t, 2000, event.Rows[0].RawAmount, 1e-9)
		assert.InDelta(t, 2000/0.204, event.Rows[1].RawAmount, 1e-6)
	})

	t.Run("set_pair cambia el destino", func(t *testing.T) {
		f.send(t, `{"type":"set_pair","from":"TWD","to":"USD"}`)
		event := f.next(t)
		require.Equal(t, dto.EventRows, event.Type)
		assert.Equal(t, entities.USD, event.Rows[1].Currency)
	})

	t.Run("get_state devuelve el estado", func(t *testing.T) {
		f.send(t, `{"type":"get_state"}`)
		event := f.next(t)
		require.Equal(t, dto.EventState, event.Type)
		require.NotNil(t, event.State)
		assert.Equal(t, entities.USD, event.State.To)
	})

	t.Run("add_to_history devuelve el historial", func(t *testing.T) {
		f.send(t, `{"type":"add_to_history"}`)
		event := f.next(t)
		require.Equal(t, dto.EventHistory, event.Type)
		require.Len(t, event.History, 1)
		assert.Equal(t, entities.USD, event.History[0].To)
	})
}

func TestConverterHandler_InvalidCommands(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		expectedCode string
	}{
		{
			name:         "mensaje que no es JSON",
			payload:      `hola`,
			expectedCode: "INVALID_MESSAGE",
		},
		{
			name:         "comando desconocido",
			payload:      `{"type":"teleport"}`,
			expectedCode: "UNKNOWN_COMMAND",
		},
		{
			name:         "moneda desconocida",
			payload:      `{"type":"set_pair","from":"TWD","to":"XYZ"}`,
			expectedCode: "INVALID_PARAMETER",
		},
		{
			name:         "tipo de tasa desconocido",
			payload:      `{"type":"set_rate_type","rate_type":"wholesale"}`,
			expectedCode: "INVALID_PARAMETER",
		},
	}

	f := newConverterFixture(t, true)
	f.next(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.send(t, tt.payload)
			event := f.next(t)
			require.Equal(t, dto.EventError, event.Type)
			require.NotNil(t, event.Error)
			assert.Equal(t, tt.expectedCode, event.Error.Error)
		})
	}
}

func TestConverterHandler_SourceUnavailable(t *testing.T) {
	f := newConverterFixture(t, false)

	event := f.next(t)
	require.Equal(t, dto.EventError, event.Type)
	assert.Equal(t, "SOURCE_UNAVAILABLE", event.Error.Error)

	// las filas llegan igual con el indicador de sin datos
	event = f.next(t)
	require.Equal(t, dto.EventRows, event.Type)
	require.Len(t, event.Rows, 2)
	assert.Equal(t, services.NoDataIndicator, event.Rows[1].Amount)
	assert.Equal(t, entities.RateUnavailable.String(), event.Rows[1].Status)
}

func TestConverterHandler_PublishReachesOpenSession(t *testing.T) {
	f := newConverterFixture(t, false)
	f.next(t)
	f.next(t)
	require.Eventually(t, func() bool { return f.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	f.hub.Publish(context.Background(), testSnapshot())

	event := f.next(t)
	require.Equal(t, dto.EventRows, event.Type)
	assert.Equal(t, entities.RateAvailable.String(), event.Rows[1].Status)
}

func TestConverterHandler_CloseUnregisters(t *testing.T) {
	f := newConverterFixture(t, true)
	f.next(t)
	require.Eventually(t, func() bool { return f.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, f.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	assert.Eventually(t, func() bool { return f.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
