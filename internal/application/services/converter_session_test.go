package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratewise-service/internal/domain/entities"
)

func newTestSession(t *testing.T, opts SessionOptions) (*ConverterSession, *recordingPresenter) {
	t.Helper()
	presenter := &recordingPresenter{}
	if opts.Now == nil {
		opts.Now = fixedNow(time.Date(2025, 11, 20, 8, 30, 0, 0, time.UTC))
	}
	session := NewConverterSession("ses_test", NewCalculator(nil), presenter, opts)
	return session, presenter
}

func TestConverterSession_Defaults(t *testing.T) {
	session, presenter := newTestSession(t, SessionOptions{})

	state := session.State()
	assert.Equal(t, "ses_test", state.ID)
	assert.Equal(t, ModeSingle, state.Mode)
	assert.Equal(t, entities.RateTypeSpot, state.RateType)
	assert.Equal(t, entities.TWD, state.From)
	assert.Equal(t, entities.JPY, state.To)
	assert.Equal(t, "1000", state.FromAmount)
	assert.True(t, state.HasOnlyOneRateType, "no snapshot yet")
	assert.Equal(t, 0, presenter.count())
}

func TestConverterSession_SingleMode(t *testing.T) {
	t.Run("snapshot triggers first recalculation", func(t *testing.T) {
		session, presenter := newTestSession(t, SessionOptions{})

		session.SetSnapshot(context.Background(), sampleSnapshot())

		rows := presenter.last()
		require.Len(t, rows, 2)
		assert.Equal(t, entities.FormattedRow{
			Currency:  entities.TWD,
			Amount:    "1,000.00",
			Rate:      "1.0000",
			Status:    "available",
			IsSource:  true,
			RawAmount: 1000,
		}, rows[0])
		assert.Equal(t, entities.JPY, rows[1].Currency)
		assert.Equal(t, "4,902", rows[1].Amount)
		assert.Equal(t, "4.9020", rows[1].Rate)
		assert.Equal(t, "4902", session.State().ToAmount)
		assert.Equal(t, "2025/11/20 16:00:00", session.State().UpdateTime)
	})

	t.Run("forward conversion", func(t *testing.T) {
		session, presenter := newTestSession(t, SessionOptions{})
		ctx := context.Background()
		session.SetSnapshot(ctx, sampleSnapshot())
		require.NoError(t, session.SetPair(ctx, entities.USD, entities.JPY))

		session.SetFromAmount(ctx, "100")

		rows := presenter.last()
		require.Len(t, rows, 2)
		assert.Equal(t, "100.00", rows[0].Amount)
		assert.Equal(t, "15,181", rows[1].Amount)
		assert.InDelta(t, 15181.37, rows[1].RawAmount, 0.01)
		assert.Equal(t, "15181", session.State().ToAmount)
	})

	t.Run("reverse conversion from the target field", func(t *testing.T) {
		session, presenter := newTestSession(t, SessionOptions{})
		ctx := context.Background()
		session.SetSnapshot(ctx, sampleSnapshot())
		require.NoError(t, session.SetPair(ctx, entities.USD, entities.JPY))

		session.SetToAmount(ctx, "15181.37")

		rows := presenter.last()
		require.Len(t, rows, 2)
		assert.Equal(t, entities.JPY, rows[0].Currency)
		assert.True(t, rows[0].IsSource)
		assert.Equal(t, entities.USD, rows[1].Currency)
		state := session.State()
		assert.Equal(t, "15181", state.ToAmount, "zero-decimal input is truncated")
		assert.Equal(t, "100.00", state.FromAmount)
	})

	t.Run("unavailable rate shows the no data indicator", func(t *testing.T) {
		session, presenter := newTestSession(t, SessionOptions{})
		ctx := context.Background()
		session.SetSnapshot(ctx, sampleSnapshot())

		require.NoError(t, session.SetPair(ctx, entities.TWD, entities.VND))

		rows := presenter.last()
		require.Len(t, rows, 2)
		assert.Equal(t, NoDataIndicator, rows[1].Amount)
		assert.Equal(t, NoDataIndicator, rows[1].Rate)
		assert.Equal(t, "unavailable", rows[1].Status)
		assert.Equal(t, "", session.State().ToAmount)
	})

	t.Run("empty input clears the derived amount", func(t *testing.T) {
		session, presenter := newTestSession(t, SessionOptions{})
		ctx := context.Background()
		session.SetSnapshot(ctx, sampleSnapshot())

		session.SetFromAmount(ctx, "abc")

		rows := presenter.last()
		require.Len(t, rows, 2)
		assert.Equal(t, "", rows[0].Amount)
		assert.Equal(t, "", rows[1].Amount)
		assert.Equal(t, "", session.State().ToAmount)
	})
}

func TestConverterSession_SwapCurrencies(t *testing.T) {
	session, _ := newTestSession(t, SessionOptions{})
	ctx := context.Background()
	session.SetSnapshot(ctx, sampleSnapshot())
	require.NoError(t, session.SetPair(ctx, entities.USD, entities.JPY))
	session.SetFromAmount(ctx, "100")

	session.SwapCurrencies(ctx)

	state := session.State()
	assert.Equal(t, entities.JPY, state.From)
	assert.Equal(t, entities.USD, state.To)
	assert.Equal(t, "15181", state.FromAmount)
	assert.Equal(t, "100.00", state.ToAmount)
}

func TestConverterSession_RatePreference(t *testing.T) {
	session, presenter := newTestSession(t, SessionOptions{})
	ctx := context.Background()
	session.SetSnapshot(ctx, sampleSnapshot())
	require.NoError(t, session.SetPair(ctx, entities.USD, entities.TWD))
	session.SetFromAmount(ctx, "1")

	require.NoError(t, session.SetRatePreference(ctx, entities.RateTypeCash))
	assert.Equal(t, "31.44", presenter.last()[1].Amount)

	require.NoError(t, session.SetRatePreference(ctx, entities.RateTypeSpot))
	assert.Equal(t, "30.97", presenter.last()[1].Amount)

	err := session.SetRatePreference(ctx, entities.RateType("wire"))
	assert.True(t, errors.Is(err, entities.ErrUnknownRateType))
}

func TestConverterSession_MultiMode(t *testing.T) {
	tracked := []entities.CurrencyCode{entities.TWD, entities.USD, entities.JPY, entities.VND}
	session, presenter := newTestSession(t, SessionOptions{Tracked: tracked, Mode: ModeMulti})
	ctx := context.Background()

	session.SetSnapshot(ctx, sampleSnapshot())

	rows := presenter.last()
	require.Len(t, rows, 4)
	got := make(map[entities.CurrencyCode]string, len(rows))
	for _, row := range rows {
		got[row.Currency] = row.Amount
	}
	assert.Equal(t, map[entities.CurrencyCode]string{
		entities.TWD: "1,000.00",
		entities.USD: "32.29",
		entities.JPY: "4,902",
		entities.VND: NoDataIndicator,
	}, got)

	state := session.State()
	assert.Equal(t, "32.29", state.MultiAmounts[entities.USD])
	assert.Equal(t, "", state.MultiAmounts[entities.VND])

	t.Run("editing another currency makes it the base", func(t *testing.T) {
		require.NoError(t, session.SetMultiAmount(ctx, entities.USD, "10"))

		state := session.State()
		assert.Equal(t, entities.USD, state.BaseCurrency)
		assert.Equal(t, "309.70", state.MultiAmounts[entities.TWD])
		assert.True(t, presenter.last()[0].IsSource)
	})

	t.Run("quick amount targets the base", func(t *testing.T) {
		assert.Equal(t, []float64{10, 20, 50, 100, 500}, session.QuickAmounts())

		session.QuickAmount(ctx, 500)

		assert.Equal(t, "500", session.State().MultiAmounts[entities.USD])
		assert.Equal(t, "15,485.00", presenter.last()[1].Amount)
	})

	t.Run("unknown currency rejected", func(t *testing.T) {
		err := session.SetMultiAmount(ctx, entities.CurrencyCode("BTC"), "1")
		assert.ErrorIs(t, err, entities.ErrUnknownCurrency)
	})
}

func TestConverterSession_QuickAmountSingleMode(t *testing.T) {
	session, _ := newTestSession(t, SessionOptions{})
	ctx := context.Background()
	session.SetSnapshot(ctx, sampleSnapshot())

	assert.Equal(t, []float64{100, 500, 1000, 3000, 5000}, session.QuickAmounts())
	session.QuickAmount(ctx, 3000)

	state := session.State()
	assert.Equal(t, "3000", state.FromAmount)
	assert.Equal(t, "14706", state.ToAmount)
}

func TestConverterSession_SetPairValidation(t *testing.T) {
	session, _ := newTestSession(t, SessionOptions{})

	err := session.SetPair(context.Background(), entities.CurrencyCode("BTC"), entities.USD)
	assert.ErrorIs(t, err, entities.ErrUnknownCurrency)

	err = session.SetPair(context.Background(), entities.USD, entities.CurrencyCode("XAU"))
	assert.ErrorIs(t, err, entities.ErrUnknownCurrency)
}

func TestConverterSession_History(t *testing.T) {
	session, _ := newTestSession(t, SessionOptions{})
	ctx := context.Background()
	session.SetSnapshot(ctx, sampleSnapshot())

	for i := 1; i <= 7; i++ {
		session.SetFromAmount(ctx, fmt.Sprintf("%d", i*100))
		_, err := session.AddToHistory(ctx)
		require.NoError(t, err)
	}

	history, err := session.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryEntries)
	assert.Equal(t, "700", history[0].Amount)
	assert.Equal(t, "300", history[4].Amount)
	assert.Equal(t, entities.TWD, history[0].From)
	assert.Equal(t, entities.JPY, history[0].To)
	assert.Equal(t, "3431", history[0].Result)
}

// failingSink simula una persistencia externa caída
type failingSink struct{}

func (failingSink) Append(context.Context, entities.ConversionHistoryEntry) error {
	return errors.New("storage unavailable")
}

func (failingSink) Recent(context.Context) ([]entities.ConversionHistoryEntry, error) {
	return nil, nil
}

func TestConverterSession_HistorySinkError(t *testing.T) {
	session, _ := newTestSession(t, SessionOptions{History: failingSink{}})

	_, err := session.AddToHistory(context.Background())

	assert.ErrorContains(t, err, "storage unavailable")
}

func TestConverterSession_HasOnlyOneRateType(t *testing.T) {
	f := entities.Float
	spotOnly := entities.NewRateSnapshot(time.Now(), "test", "", nil, map[entities.CurrencyCode]entities.RateDetail{
		entities.USD: {Spot: entities.Quote{Sell: f(30.97)}},
		entities.JPY: {Spot: entities.Quote{Sell: f(0.204)}, Cash: entities.Quote{Sell: f(0)}},
	})

	tests := []struct {
		name     string
		snapshot *entities.RateSnapshot
		want     bool
	}{
		{name: "no snapshot", snapshot: nil, want: true},
		{name: "spot and cash published", snapshot: sampleSnapshot(), want: false},
		{name: "only spot published", snapshot: spotOnly, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, _ := newTestSession(t, SessionOptions{})
			session.SetSnapshot(context.Background(), tt.snapshot)
			assert.Equal(t, tt.want, session.HasOnlyOneRateType())
		})
	}
}

func TestConverterSession_CoalescedWithFrames(t *testing.T) {
	frames := &manualFrames{}
	session, presenter := newTestSession(t, SessionOptions{Frames: frames})
	ctx := context.Background()
	session.SetSnapshot(ctx, sampleSnapshot())

	session.SetFromAmount(ctx, "1")
	session.SetFromAmount(ctx, "10")
	session.SetFromAmount(ctx, "100")

	assert.Equal(t, 0, presenter.count())
	assert.Equal(t, 1, frames.Flush())
	assert.Equal(t, 1, presenter.count())
	assert.Equal(t, "490", session.State().ToAmount)

	session.SetFromAmount(ctx, "5")
	session.Close()
	assert.Equal(t, 0, frames.Flush())
}

func TestParseConverterMode(t *testing.T) {
	mode, err := ParseConverterMode("multi")
	require.NoError(t, err)
	assert.Equal(t, ModeMulti, mode)

	_, err = ParseConverterMode("grid")
	assert.Error(t, err)
}
