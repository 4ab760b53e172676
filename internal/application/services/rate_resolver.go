package services

import (
	"context"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
)

// RateResolver elige la tasa efectiva de una moneda contra el pivote.
// Orden: venta del tipo preferido, venta del otro tipo, tasa simplificada.
type RateResolver struct {
	observer interfaces.Observer
}

// NewRateResolver crea el resolver; observer puede ser nil
func NewRateResolver(observer interfaces.Observer) *RateResolver {
	if observer == nil {
		observer = interfaces.NopObserver{}
	}
	return &RateResolver{observer: observer}
}

// Resolve devuelve la tasa de currency expresada en unidades de pivote.
// Un valor 0 o ausente en cualquier nivel cuenta como faltante.
func (r *RateResolver) Resolve(ctx context.Context, currency entities.CurrencyCode, pref entities.RateType, snapshot *entities.RateSnapshot) entities.RateResult {
	if currency.IsPivot() {
		return entities.Available(1)
	}
	if pref != entities.RateTypeCash {
		pref = entities.RateTypeSpot
	}

	if detail, ok := snapshot.Detail(currency); ok {
		if v, ok := sellOf(detail, pref); ok {
			return entities.Available(v)
		}
		other := pref.Other()
		if v, ok := sellOf(detail, other); ok {
			r.observer.RateFallback(ctx, currency, pref, other, v)
			return entities.Available(v)
		}
	}

	if v, ok := snapshot.Rate(currency); ok && v != 0 {
		return entities.Available(v)
	}

	r.observer.RateUnavailable(ctx, currency)
	return entities.Unavailable()
}

func sellOf(detail entities.RateDetail, rateType entities.RateType) (float64, bool) {
	sell := detail.Quote(rateType).Sell
	if sell == nil || *sell == 0 {
		return 0, false
	}
	return *sell, true
}
