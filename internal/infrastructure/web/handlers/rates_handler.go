package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"ratewise-service/internal/application/dto"
	"ratewise-service/internal/application/services"
	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/source"
)

// HistoryRange es el agregador de rangos que usa el handler
type HistoryRange interface {
	interfaces.RangeFetcher
	MaxDays() int
}

// RatesHandler maneja los endpoints de consulta de tasas
type RatesHandler struct {
	source  interfaces.RateSource
	history HistoryRange
	calc    *services.Calculator
	mapper  *dto.RateMapper
}

// NewRatesHandler crea una nueva instancia del handler de tasas
func NewRatesHandler(source interfaces.RateSource, history HistoryRange, calc *services.Calculator) *RatesHandler {
	if calc == nil {
		calc = services.NewCalculator(nil)
	}
	return &RatesHandler{
		source:  source,
		history: history,
		calc:    calc,
		mapper:  dto.NewRateMapper(),
	}
}

// GetLatest maneja GET /api/v1/rates/latest
func (h *RatesHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	h.writeSnapshot(w, r, entities.LatestResource())
}

// GetResource maneja GET /api/v1/rates/{date}
func (h *RatesHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["date"]
	id, err := entities.ParseResourceID(raw)
	if err != nil {
		logging.Warn(r.Context(), "Invalid rate resource requested", logging.Fields{
			logging.FieldResource: raw,
		})
		h.writeErrorResponse(w, r.Context(), http.StatusBadRequest, "INVALID_PARAMETER", "Resource must be 'latest' or a date formatted YYYY-MM-DD")
		return
	}
	h.writeSnapshot(w, r, id)
}

// GetHistory maneja GET /api/v1/rates/history?days=N
func (h *RatesHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := dto.ParseDays(r.URL.Query().Get("days"), h.history.MaxDays())
	if err != nil {
		h.writeErrorResponse(w, ctx, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}
	if days > h.history.MaxDays() {
		days = h.history.MaxDays()
	}

	snapshots := h.history.FetchRange(ctx, days)
	if err := ctx.Err(); err != nil {
		// el cliente se fue; no hay a quién responder
		return
	}

	logging.Info(ctx, "Historical range served", logging.Fields{
		logging.FieldDaysRequested: days,
		logging.FieldDaysFetched:   len(snapshots),
	})
	h.writeJSONResponse(w, ctx, http.StatusOK, h.mapper.ToHistoryResponse(days, snapshots))
}

// Convert maneja GET /api/v1/convert?amount=&from=&to=&rate_type=
func (h *RatesHandler) Convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	req, err := dto.NewConvertRequest(query.Get("amount"), query.Get("from"), query.Get("to"), query.Get("rate_type"))
	if err != nil {
		h.writeErrorResponse(w, ctx, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	snapshot, err := h.source.FetchResource(ctx, entities.LatestResource())
	if err != nil {
		h.writeFetchError(w, ctx, entities.LatestResource(), err)
		return
	}

	result := h.calc.ConvertResult(ctx, snapshot, req.ToEntity())
	logging.Debug(ctx, "Conversion computed", logging.Fields{
		"from":                req.From.String(),
		"to":                  req.To.String(),
		logging.FieldRateType: req.RateType.String(),
		"status":              result.Status.String(),
	})
	h.writeJSONResponse(w, ctx, http.StatusOK, h.mapper.ToConvertResponse(result))
}

// GetCurrencies maneja GET /api/v1/currencies
func (h *RatesHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, r.Context(), http.StatusOK, h.mapper.ToCurrenciesResponse())
}

func (h *RatesHandler) writeSnapshot(w http.ResponseWriter, r *http.Request, id entities.ResourceID) {
	ctx := r.Context()

	snapshot, err := h.source.FetchResource(ctx, id)
	if err != nil {
		h.writeFetchError(w, ctx, id, err)
		return
	}
	h.writeJSONResponse(w, ctx, http.StatusOK, h.mapper.ToSnapshotResponse(id, snapshot))
}

// writeFetchError distingue "todavía no publicado" de una caída de los mirrors
func (h *RatesHandler) writeFetchError(w http.ResponseWriter, ctx context.Context, id entities.ResourceID, err error) {
	var failure *source.FetchFailure
	switch {
	case errors.As(err, &failure) && failure.NotPublished():
		h.writeErrorResponse(w, ctx, http.StatusNotFound, "RATES_NOT_PUBLISHED", "No rates published for "+id.String())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeErrorResponse(w, ctx, http.StatusGatewayTimeout, "SOURCE_TIMEOUT", "Rate source did not answer in time")
	default:
		logging.ErrorWithError(ctx, "Failed to fetch rates", err, logging.Fields{
			logging.FieldResource: id.String(),
		})
		h.writeErrorResponse(w, ctx, http.StatusBadGateway, "SOURCE_UNAVAILABLE", "All rate mirrors failed")
	}
}

// writeJSONResponse writes a JSON response preserving the original context
func (h *RatesHandler) writeJSONResponse(w http.ResponseWriter, ctx context.Context, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(ctx, "Failed to encode JSON response", err, logging.Fields{
			"status_code": statusCode,
		})
	}
}

// writeErrorResponse writes an error response
func (h *RatesHandler) writeErrorResponse(w http.ResponseWriter, ctx context.Context, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, ctx, statusCode, dto.NewErrorResponse(errorCode, message))
}
