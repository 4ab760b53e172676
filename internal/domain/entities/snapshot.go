package entities

import (
	"time"
)

// Quote representa las cotizaciones de compra y venta; nil significa sin dato
type Quote struct {
	Buy  *float64 `json:"buy"`
	Sell *float64 `json:"sell"`
}

// RateDetail agrupa las cotizaciones spot y cash de una moneda
type RateDetail struct {
	Name string `json:"name,omitempty"`
	Spot Quote  `json:"spot"`
	Cash Quote  `json:"cash"`
}

// Quote devuelve la cotización del tipo solicitado
func (d RateDetail) Quote(rateType RateType) Quote {
	if rateType == RateTypeCash {
		return d.Cash
	}
	return d.Spot
}

// HasSell indica si hay precio de venta para el tipo dado
func (d RateDetail) HasSell(rateType RateType) bool {
	return d.Quote(rateType).Sell != nil
}

// RateSnapshot es una foto inmutable de las tasas publicadas por la fuente.
// Una actualización produce un snapshot nuevo, nunca una mutación.
type RateSnapshot struct {
	retrievedAt time.Time
	source      string
	updateTime  string
	rates       map[CurrencyCode]*float64
	details     map[CurrencyCode]RateDetail
}

// NewRateSnapshot copia los mapas recibidos para que el llamador no pueda mutarlo después
func NewRateSnapshot(retrievedAt time.Time, source, updateTime string, rates map[CurrencyCode]*float64, details map[CurrencyCode]RateDetail) *RateSnapshot {
	s := &RateSnapshot{
		retrievedAt: retrievedAt,
		source:      source,
		updateTime:  updateTime,
		rates:       make(map[CurrencyCode]*float64, len(rates)),
		details:     make(map[CurrencyCode]RateDetail, len(details)),
	}
	for code, v := range rates {
		s.rates[code] = copyFloat(v)
	}
	for code, d := range details {
		s.details[code] = copyDetail(d)
	}
	return s
}

func (s *RateSnapshot) RetrievedAt() time.Time { return s.retrievedAt }
func (s *RateSnapshot) Source() string         { return s.source }
func (s *RateSnapshot) UpdateTime() string     { return s.updateTime }

// Rate devuelve la tasa simplificada de la moneda
func (s *RateSnapshot) Rate(code CurrencyCode) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.rates[code]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Detail devuelve el detalle spot/cash de la moneda
func (s *RateSnapshot) Detail(code CurrencyCode) (RateDetail, bool) {
	if s == nil {
		return RateDetail{}, false
	}
	d, ok := s.details[code]
	if !ok {
		return RateDetail{}, false
	}
	return copyDetail(d), true
}

// HasDetails reports whether the snapshot carries detailed quotes.
func (s *RateSnapshot) HasDetails() bool {
	return s != nil && len(s.details) > 0
}

// Rates devuelve una copia del mapa simplificado
func (s *RateSnapshot) Rates() map[CurrencyCode]*float64 {
	if s == nil {
		return map[CurrencyCode]*float64{}
	}
	out := make(map[CurrencyCode]*float64, len(s.rates))
	for code, v := range s.rates {
		out[code] = copyFloat(v)
	}
	return out
}

// Details devuelve una copia del mapa detallado
func (s *RateSnapshot) Details() map[CurrencyCode]RateDetail {
	if s == nil {
		return map[CurrencyCode]RateDetail{}
	}
	out := make(map[CurrencyCode]RateDetail, len(s.details))
	for code, d := range s.details {
		out[code] = copyDetail(d)
	}
	return out
}

// HasOnlyOneRateType indica si todas las monedas publican un único tipo de tasa,
// en cuyo caso la UI no debe ofrecer el selector spot/cash
func (s *RateSnapshot) HasOnlyOneRateType() bool {
	if !s.HasDetails() {
		return true
	}
	hasSpot, hasCash := false, false
	for _, d := range s.details {
		if isPositive(d.Spot.Sell) {
			hasSpot = true
		}
		if isPositive(d.Cash.Sell) {
			hasCash = true
		}
	}
	return !(hasSpot && hasCash)
}

// HistoricalSnapshot asocia un snapshot con la fecha publicada
type HistoricalSnapshot struct {
	Date     time.Time
	Snapshot *RateSnapshot
}

// Float es un helper para construir punteros en literales
func Float(v float64) *float64 {
	return &v
}

func isPositive(v *float64) bool {
	return v != nil && *v != 0
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyDetail(d RateDetail) RateDetail {
	return RateDetail{
		Name: d.Name,
		Spot: Quote{Buy: copyFloat(d.Spot.Buy), Sell: copyFloat(d.Spot.Sell)},
		Cash: Quote{Buy: copyFloat(d.Cash.Buy), Sell: copyFloat(d.Cash.Sell)},
	}
}
