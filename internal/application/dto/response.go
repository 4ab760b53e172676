package dto

import (
	"time"

	"ratewise-service/internal/domain/entities"
)

// QuoteData es un par compra/venta; nil significa que la tasa no está publicada
type QuoteData struct {
	Buy  *float64 `json:"buy"`
	Sell *float64 `json:"sell"`
}

// RateDetailData es la cotización detallada de una moneda
type RateDetailData struct {
	Name string    `json:"name,omitempty"`
	Spot QuoteData `json:"spot"`
	Cash QuoteData `json:"cash"`
}

// SnapshotResponse represents the response from /api/v1/rates/{resource}
type SnapshotResponse struct {
	Resource           string                    `json:"resource" example:"latest"`
	Source             string                    `json:"source" example:"Bank of Taiwan"`
	UpdateTime         string                    `json:"update_time" example:"2025/11/20 16:00:00"`
	RetrievedAt        time.Time                 `json:"retrieved_at"`
	Rates              map[string]*float64       `json:"rates"`
	Details            map[string]RateDetailData `json:"details,omitempty"`
	HasOnlyOneRateType bool                      `json:"has_only_one_rate_type"`
}

// HistoryDay es un día publicado dentro de un rango
type HistoryDay struct {
	Date     string           `json:"date" example:"2025-11-19"`
	Snapshot SnapshotResponse `json:"snapshot"`
}

// HistoryResponse represents the response from /api/v1/rates/history
type HistoryResponse struct {
	Requested int          `json:"requested"`
	Fetched   int          `json:"fetched"`
	Days      []HistoryDay `json:"days"`
}

// ConvertResponse represents the response from /api/v1/convert
type ConvertResponse struct {
	From            entities.CurrencyCode `json:"from"`
	To              entities.CurrencyCode `json:"to"`
	RateType        entities.RateType     `json:"rate_type"`
	Amount          float64               `json:"amount"`
	Result          float64               `json:"result"`
	FormattedResult string                `json:"formatted_result" example:"15,181"`
	Rate            string                `json:"rate" example:"151.8137"`
	Status          string                `json:"status" enums:"available,unavailable,zero"`
}

// CurrencyData describe una moneda soportada con sus montos rápidos
type CurrencyData struct {
	Code         entities.CurrencyCode `json:"code"`
	Name         string                `json:"name"`
	Symbol       string                `json:"symbol"`
	Decimals     int32                 `json:"decimals"`
	IsPivot      bool                  `json:"is_pivot"`
	QuickAmounts []float64             `json:"quick_amounts"`
}

// CurrenciesResponse represents the response from /api/v1/currencies
type CurrenciesResponse struct {
	Pivot      entities.CurrencyCode `json:"pivot"`
	Currencies []CurrencyData        `json:"currencies"`
}

// ErrorResponse represents a standard error response for endpoints
type ErrorResponse struct {
	Error   string `json:"error" example:"INVALID_PARAMETER"`
	Message string `json:"message,omitempty" example:"unknown currency code"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse represents the health check response with service status
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy" enums:"healthy,ready,unhealthy"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(error string, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
	}
}

// NewErrorResponseWithCode creates an error response with code
func NewErrorResponseWithCode(error string, message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	}
}

// NewHealthResponse creates a health check response
func NewHealthResponse(status string, services map[string]string) *HealthResponse {
	return &HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
}
