package source

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"ratewise-service/internal/domain/entities"
)

// DecodePayload convierte el JSON publicado en un RateSnapshot.
//
// Cada valor de "rates" puede ser un número, null o un objeto
// {name, spot:{buy,sell}, cash:{buy,sell}}. Un 0 en cualquier cotización
// se trata como null. Las monedas fuera del conjunto soportado se ignoran.
func DecodePayload(body []byte, retrievedAt time.Time) (*entities.RateSnapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidPayload)
	}

	root := gjson.ParseBytes(body)
	ratesNode := root.Get("rates")
	if !ratesNode.IsObject() {
		return nil, fmt.Errorf("%w: missing rates object", ErrInvalidPayload)
	}

	rates := make(map[entities.CurrencyCode]*float64)
	details := make(map[entities.CurrencyCode]entities.RateDetail)

	ratesNode.ForEach(func(key, value gjson.Result) bool {
		code, err := entities.ParseCurrencyCode(key.String())
		if err != nil {
			return true
		}
		if value.IsObject() {
			details[code] = decodeDetail(value)
			rates[code] = nil
			return true
		}
		rates[code] = quoteValue(value)
		return true
	})

	// el bloque details, cuando existe, prevalece sobre objetos embebidos en rates
	root.Get("details").ForEach(func(key, value gjson.Result) bool {
		code, err := entities.ParseCurrencyCode(key.String())
		if err != nil || !value.IsObject() {
			return true
		}
		details[code] = decodeDetail(value)
		return true
	})

	return entities.NewRateSnapshot(
		retrievedAt,
		root.Get("source").String(),
		root.Get("updateTime").String(),
		rates,
		details,
	), nil
}

func decodeDetail(node gjson.Result) entities.RateDetail {
	return entities.RateDetail{
		Name: node.Get("name").String(),
		Spot: entities.Quote{
			Buy:  quoteValue(node.Get("spot.buy")),
			Sell: quoteValue(node.Get("spot.sell")),
		},
		Cash: entities.Quote{
			Buy:  quoteValue(node.Get("cash.buy")),
			Sell: quoteValue(node.Get("cash.sell")),
		},
	}
}

// quoteValue devuelve nil para null, ausente, no numérico o 0
func quoteValue(node gjson.Result) *float64 {
	if node.Type != gjson.Number {
		return nil
	}
	v := node.Float()
	if v == 0 {
		return nil
	}
	return &v
}
