package services

import (
	"context"
	"math"

	"ratewise-service/internal/domain/entities"
)

// Calculator convierte montos entre monedas vía la moneda pivote
type Calculator struct {
	resolver *RateResolver
}

// NewCalculator crea el calculador de tasas cruzadas
func NewCalculator(resolver *RateResolver) *Calculator {
	if resolver == nil {
		resolver = NewRateResolver(nil)
	}
	return &Calculator{resolver: resolver}
}

// Resolver expone el resolver subyacente
func (c *Calculator) Resolver() *RateResolver {
	return c.resolver
}

// CrossRate devuelve cuántas unidades de target vale una unidad de base
func (c *Calculator) CrossRate(ctx context.Context, snapshot *entities.RateSnapshot, base, target entities.CurrencyCode, pref entities.RateType) entities.RateResult {
	if base == target {
		return entities.Available(1)
	}

	switch {
	case base.IsPivot():
		rt := c.resolver.Resolve(ctx, target, pref, snapshot)
		if !rt.IsAvailable() {
			return entities.Unavailable()
		}
		return finite(1 / rt.Value)
	case target.IsPivot():
		rb := c.resolver.Resolve(ctx, base, pref, snapshot)
		if !rb.IsAvailable() {
			return entities.Unavailable()
		}
		return finite(rb.Value)
	default:
		rb := c.resolver.Resolve(ctx, base, pref, snapshot)
		rt := c.resolver.Resolve(ctx, target, pref, snapshot)
		if !rb.IsAvailable() || !rt.IsAvailable() {
			return entities.Unavailable()
		}
		return finite(rb.Value / rt.Value)
	}
}

// Convert nunca falla: 0 significa que no hay tasa disponible
func (c *Calculator) Convert(ctx context.Context, snapshot *entities.RateSnapshot, amount float64, from, to entities.CurrencyCode, pref entities.RateType) float64 {
	if from == to {
		return amount
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	rate := c.CrossRate(ctx, snapshot, from, to, pref)
	if !rate.IsAvailable() {
		return 0
	}
	return amount * rate.Value
}

// ConvertResult es la variante tri-estado de Convert
func (c *Calculator) ConvertResult(ctx context.Context, snapshot *entities.RateSnapshot, req entities.ConversionRequest) entities.ConversionResult {
	result := entities.ConversionResult{Request: req}

	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		result.Status = entities.RateUnavailable
		return result
	}

	rate := c.CrossRate(ctx, snapshot, req.From, req.To, req.RateTypePreference)
	if !rate.IsAvailable() {
		result.Status = entities.RateUnavailable
		return result
	}

	result.Rate = rate.Value
	if req.From == req.To {
		result.Amount = req.Amount
	} else {
		result.Amount = req.Amount * rate.Value
	}
	result.Status = entities.RateAvailable
	if result.Amount == 0 {
		result.Status = entities.RateZero
	}
	return result
}

func finite(v float64) entities.RateResult {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return entities.Unavailable()
	}
	return entities.Available(v)
}
