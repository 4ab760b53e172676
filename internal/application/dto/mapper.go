package dto

import (
	"ratewise-service/internal/application/services"
	"ratewise-service/internal/domain/entities"
)

// Tipos de evento enviados por el websocket del conversor
const (
	EventRows    = "rows"
	EventState   = "state"
	EventHistory = "history"
	EventError   = "error"
)

// ConverterEvent es un mensaje del servidor hacia el cliente del conversor
type ConverterEvent struct {
	Type    string                            `json:"type"`
	Rows    []entities.FormattedRow           `json:"rows,omitempty"`
	State   *services.SessionState            `json:"state,omitempty"`
	History []entities.ConversionHistoryEntry `json:"history,omitempty"`
	Error   *ErrorResponse                    `json:"error,omitempty"`
}

// RateMapper maneja la conversión entre entidades del dominio y DTOs
type RateMapper struct{}

// NewRateMapper crea una nueva instancia del mapper
func NewRateMapper() *RateMapper {
	return &RateMapper{}
}

// ToSnapshotResponse convierte un snapshot al DTO de respuesta
func (m *RateMapper) ToSnapshotResponse(id entities.ResourceID, snapshot *entities.RateSnapshot) SnapshotResponse {
	rates := snapshot.Rates()
	out := SnapshotResponse{
		Resource:           id.String(),
		Source:             snapshot.Source(),
		UpdateTime:         snapshot.UpdateTime(),
		RetrievedAt:        snapshot.RetrievedAt(),
		Rates:              make(map[string]*float64, len(rates)),
		HasOnlyOneRateType: snapshot.HasOnlyOneRateType(),
	}
	for code, rate := range rates {
		out.Rates[code.String()] = rate
	}

	if snapshot.HasDetails() {
		details := snapshot.Details()
		out.Details = make(map[string]RateDetailData, len(details))
		for code, detail := range details {
			out.Details[code.String()] = RateDetailData{
				Name: detail.Name,
				Spot: QuoteData{Buy: detail.Spot.Buy, Sell: detail.Spot.Sell},
				Cash: QuoteData{Buy: detail.Cash.Buy, Sell: detail.Cash.Sell},
			}
		}
	}
	return out
}

// ToHistoryResponse convierte un rango histórico; Days queda vacío y no nil
func (m *RateMapper) ToHistoryResponse(requested int, days []entities.HistoricalSnapshot) *HistoryResponse {
	out := &HistoryResponse{
		Requested: requested,
		Fetched:   len(days),
		Days:      make([]HistoryDay, 0, len(days)),
	}
	for _, day := range days {
		id := entities.HistoricalResource(day.Date)
		out.Days = append(out.Days, HistoryDay{
			Date:     id.String(),
			Snapshot: m.ToSnapshotResponse(id, day.Snapshot),
		})
	}
	return out
}

// ToConvertResponse convierte el resultado del calculador
func (m *RateMapper) ToConvertResponse(result entities.ConversionResult) *ConvertResponse {
	req := result.Request
	resp := &ConvertResponse{
		From:     req.From,
		To:       req.To,
		RateType: req.RateTypePreference,
		Amount:   req.Amount,
		Result:   result.Amount,
		Status:   result.Status.String(),
	}

	switch result.Status {
	case entities.RateUnavailable:
		resp.FormattedResult = services.NoDataIndicator
		resp.Rate = services.NoDataIndicator
	default:
		resp.FormattedResult = services.FormatAmount(result.Amount, req.To)
		resp.Rate = services.FormatExchangeRate(result.Rate)
	}
	return resp
}

// ToCurrenciesResponse lista las monedas soportadas en orden de presentación
func (m *RateMapper) ToCurrenciesResponse() *CurrenciesResponse {
	codes := entities.SupportedCurrencies()
	out := &CurrenciesResponse{
		Pivot:      entities.PivotCurrency,
		Currencies: make([]CurrencyData, 0, len(codes)),
	}
	for _, code := range codes {
		info, _ := code.Info()
		out.Currencies = append(out.Currencies, CurrencyData{
			Code:         code,
			Name:         info.Name,
			Symbol:       info.Symbol,
			Decimals:     info.Decimals,
			IsPivot:      code.IsPivot(),
			QuickAmounts: code.QuickAmounts(),
		})
	}
	return out
}
