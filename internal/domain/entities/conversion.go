package entities

import "time"

// RateStatus es el estado de una tasa o conversión resuelta
type RateStatus int

const (
	RateUnavailable RateStatus = iota
	RateAvailable
	RateZero
)

func (s RateStatus) String() string {
	switch s {
	case RateAvailable:
		return "available"
	case RateZero:
		return "zero"
	default:
		return "unavailable"
	}
}

// RateResult es un valor tri-estado: disponible, no disponible o cero genuino.
// Nunca se usa un error para expresar ausencia de tasa.
type RateResult struct {
	Value  float64
	Status RateStatus
}

// Available construye un resultado disponible; un valor 0 se marca como RateZero
func Available(v float64) RateResult {
	if v == 0 {
		return RateResult{Status: RateZero}
	}
	return RateResult{Value: v, Status: RateAvailable}
}

// Unavailable construye la ausencia tipada de tasa
func Unavailable() RateResult {
	return RateResult{Status: RateUnavailable}
}

func (r RateResult) IsAvailable() bool {
	return r.Status == RateAvailable
}

// ValueOrZero devuelve el valor o el centinela 0 si no está disponible
func (r RateResult) ValueOrZero() float64 {
	if r.Status != RateAvailable {
		return 0
	}
	return r.Value
}

// ConversionRequest es una solicitud de conversión de monto
type ConversionRequest struct {
	Amount             float64      `json:"amount"`
	From               CurrencyCode `json:"from"`
	To                 CurrencyCode `json:"to"`
	RateTypePreference RateType     `json:"rate_type"`
}

// ConversionResult acompaña el monto convertido con su estado
type ConversionResult struct {
	Request ConversionRequest `json:"request"`
	Amount  float64           `json:"amount"`
	Rate    float64           `json:"rate"`
	Status  RateStatus        `json:"status"`
}

// PendingRecalculation es la única edición pendiente por scheduler
type PendingRecalculation struct {
	SourceCurrency CurrencyCode
	SourceAmount   string
}

// FormattedRow es una fila lista para la capa de presentación
type FormattedRow struct {
	Currency  CurrencyCode `json:"currency"`
	Amount    string       `json:"amount"`
	Rate      string       `json:"rate"`
	Status    string       `json:"status"`
	IsSource  bool         `json:"is_source"`
	RawAmount float64      `json:"raw_amount"`
}

// ConversionHistoryEntry registra una conversión confirmada por el usuario
type ConversionHistoryEntry struct {
	From      CurrencyCode `json:"from"`
	To        CurrencyCode `json:"to"`
	Amount    string       `json:"amount"`
	Result    string       `json:"result"`
	CreatedAt time.Time    `json:"created_at"`
}
