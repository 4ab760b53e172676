package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratewise-service/internal/domain/entities"
)

const samplePayload = `{
  "timestamp": "2025-11-20T02:00:00Z",
  "updateTime": "2025/11/20 10:00:00",
  "source": "Taiwan Bank",
  "base": "TWD",
  "rates": {"TWD": 1, "USD": 30.97, "JPY": 0.204, "KRW": null, "VND": 0, "BTC": 3000000},
  "details": {
    "USD": {"name": "美金", "spot": {"buy": 30.87, "sell": 30.97}, "cash": {"buy": 30.5, "sell": 31.17}},
    "JPY": {"name": "日圓", "spot": {"buy": 0.2, "sell": 0.204}, "cash": {"buy": null, "sell": 0}}
  }
}`

func TestDecodePayload(t *testing.T) {
	retrievedAt := time.Date(2025, 11, 20, 2, 1, 0, 0, time.UTC)

	snapshot, err := DecodePayload([]byte(samplePayload), retrievedAt)
	require.NoError(t, err)

	assert.Equal(t, "Taiwan Bank", snapshot.Source())
	assert.Equal(t, "2025/11/20 10:00:00", snapshot.UpdateTime())
	assert.Equal(t, retrievedAt, snapshot.RetrievedAt())

	usd, ok := snapshot.Rate(entities.USD)
	assert.True(t, ok)
	assert.InDelta(t, 30.97, usd, 1e-9)

	_, ok = snapshot.Rate(entities.KRW)
	assert.False(t, ok, "null rate is absent")

	_, ok = snapshot.Rate(entities.VND)
	assert.False(t, ok, "zero rate is treated as null")

	_, ok = snapshot.Rate(entities.CurrencyCode("BTC"))
	assert.False(t, ok, "unsupported codes are dropped")

	jpy, ok := snapshot.Detail(entities.JPY)
	require.True(t, ok)
	assert.Equal(t, "日圓", jpy.Name)
	require.NotNil(t, jpy.Spot.Sell)
	assert.InDelta(t, 0.204, *jpy.Spot.Sell, 1e-9)
	assert.Nil(t, jpy.Cash.Buy)
	assert.Nil(t, jpy.Cash.Sell, "zero cash sell is treated as null")
}

func TestDecodePayload_DetailObjectInsideRates(t *testing.T) {
	body := []byte(`{"updateTime":"x","source":"s","rates":{"EUR":{"name":"歐元","spot":{"buy":35.1,"sell":35.6},"cash":{"buy":null,"sell":null}}}}`)

	snapshot, err := DecodePayload(body, time.Now())
	require.NoError(t, err)

	_, ok := snapshot.Rate(entities.EUR)
	assert.False(t, ok)

	eur, ok := snapshot.Detail(entities.EUR)
	require.True(t, ok)
	require.NotNil(t, eur.Spot.Sell)
	assert.InDelta(t, 35.6, *eur.Spot.Sell, 1e-9)
}

func TestDecodePayload_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"rates": `},
		{name: "missing rates", body: `{"updateTime": "x"}`},
		{name: "rates not an object", body: `{"rates": [1, 2]}`},
		{name: "html error page", body: `<html>rate limited</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload([]byte(tt.body), time.Now())
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}
