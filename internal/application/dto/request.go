package dto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ratewise-service/internal/application/services"
	"ratewise-service/internal/domain/entities"
)

var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidDays      = errors.New("invalid days")
)

// ConvertRequest representa la request de /api/v1/convert
type ConvertRequest struct {
	Amount   float64
	From     entities.CurrencyCode
	To       entities.CurrencyCode
	RateType entities.RateType
}

// NewConvertRequest valida los query parameters.
// rate_type vacío usa spot; el monto acepta separadores de miles.
func NewConvertRequest(amountParam, fromParam, toParam, rateTypeParam string) (*ConvertRequest, error) {
	if strings.TrimSpace(amountParam) == "" {
		return nil, fmt.Errorf("%w: amount", ErrMissingParameter)
	}
	if fromParam == "" || toParam == "" {
		return nil, fmt.Errorf("%w: from and to", ErrMissingParameter)
	}

	amount, ok := services.ParseAmount(amountParam)
	if !ok || amount < 0 {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidAmount, amountParam)
	}

	from, err := entities.ParseCurrencyCode(fromParam)
	if err != nil {
		return nil, err
	}
	to, err := entities.ParseCurrencyCode(toParam)
	if err != nil {
		return nil, err
	}

	rateType := entities.RateTypeSpot
	if rateTypeParam != "" {
		if rateType, err = entities.ParseRateType(rateTypeParam); err != nil {
			return nil, err
		}
	}

	return &ConvertRequest{
		Amount:   amount,
		From:     from,
		To:       to,
		RateType: rateType,
	}, nil
}

// ToEntity convierte la request a la solicitud del dominio
func (r *ConvertRequest) ToEntity() entities.ConversionRequest {
	return entities.ConversionRequest{
		Amount:             r.Amount,
		From:               r.From,
		To:                 r.To,
		RateTypePreference: r.RateType,
	}
}

// ParseDays interpreta ?days=N; vacío devuelve fallback
func ParseDays(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDays, raw)
	}
	return days, nil
}

// Tipos de comando aceptados por el websocket del conversor
const (
	CommandSetFromAmount  = "set_from_amount"
	CommandSetToAmount    = "set_to_amount"
	CommandSetMultiAmount = "set_multi_amount"
	CommandSetPair        = "set_pair"
	CommandSetMode        = "set_mode"
	CommandSetRateType    = "set_rate_type"
	CommandQuickAmount    = "quick_amount"
	CommandSwap           = "swap"
	CommandAddToHistory   = "add_to_history"
	CommandGetState       = "get_state"
)

// ConverterCommand es un mensaje del cliente hacia la sesión del conversor
type ConverterCommand struct {
	Type     string  `json:"type"`
	Amount   string  `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	From     string  `json:"from,omitempty"`
	To       string  `json:"to,omitempty"`
	Mode     string  `json:"mode,omitempty"`
	RateType string  `json:"rate_type,omitempty"`
	Value    float64 `json:"value,omitempty"`
}
