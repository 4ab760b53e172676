package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
)

// ConverterMode distingue el conversor de un par del conversor multi-moneda
type ConverterMode string

const (
	ModeSingle ConverterMode = "single"
	ModeMulti  ConverterMode = "multi"
)

// ParseConverterMode valida el modo recibido del cliente
func ParseConverterMode(raw string) (ConverterMode, error) {
	switch ConverterMode(raw) {
	case ModeSingle, ModeMulti:
		return ConverterMode(raw), nil
	default:
		return "", fmt.Errorf("unknown converter mode %q", raw)
	}
}

type amountField string

const (
	fieldFrom amountField = "from"
	fieldTo   amountField = "to"
)

const (
	DefaultFromCurrency = entities.TWD
	DefaultToCurrency   = entities.JPY
	DefaultBaseCurrency = entities.TWD
	DefaultAmount       = "1000"
)

// SessionOptions configura una sesión de conversión
type SessionOptions struct {
	Tracked  []entities.CurrencyCode
	RateType entities.RateType
	Mode     ConverterMode
	History  interfaces.ConversionHistorySink
	Frames   interfaces.FrameScheduler
	Budget   time.Duration
	Observer interfaces.Observer
	Now      func() time.Time
}

// SessionState es la vista serializable de la sesión
type SessionState struct {
	ID                 string                           `json:"id"`
	Mode               ConverterMode                    `json:"mode"`
	RateType           entities.RateType                `json:"rate_type"`
	From               entities.CurrencyCode            `json:"from"`
	To                 entities.CurrencyCode            `json:"to"`
	FromAmount         string                           `json:"from_amount"`
	ToAmount           string                           `json:"to_amount"`
	BaseCurrency       entities.CurrencyCode            `json:"base_currency"`
	MultiAmounts       map[entities.CurrencyCode]string `json:"multi_amounts,omitempty"`
	HasOnlyOneRateType bool                             `json:"has_only_one_rate_type"`
	UpdateTime         string                           `json:"update_time,omitempty"`
}

// ConverterSession mantiene el estado de un conversor interactivo.
// Las ediciones se agrupan por frame a través del RecalcScheduler.
type ConverterSession struct {
	mu           sync.RWMutex
	id           string
	snapshot     *entities.RateSnapshot
	pref         entities.RateType
	mode         ConverterMode
	from         entities.CurrencyCode
	to           entities.CurrencyCode
	fromAmount   string
	toAmount     string
	lastEdited   amountField
	base         entities.CurrencyCode
	multiAmounts map[entities.CurrencyCode]string
	tracked      []entities.CurrencyCode

	calc      *Calculator
	history   interfaces.ConversionHistorySink
	scheduler *RecalcScheduler
	now       func() time.Time
}

// NewConverterSession crea una sesión que entrega sus filas al presenter
func NewConverterSession(id string, calc *Calculator, presenter interfaces.Presenter, opts SessionOptions) *ConverterSession {
	s := &ConverterSession{
		id:           id,
		pref:         opts.RateType,
		mode:         opts.Mode,
		from:         DefaultFromCurrency,
		to:           DefaultToCurrency,
		fromAmount:   DefaultAmount,
		lastEdited:   fieldFrom,
		base:         DefaultBaseCurrency,
		multiAmounts: make(map[entities.CurrencyCode]string),
		tracked:      opts.Tracked,
		calc:         calc,
		history:      opts.History,
		now:          opts.Now,
	}
	if s.calc == nil {
		s.calc = NewCalculator(nil)
	}
	if s.pref != entities.RateTypeCash {
		s.pref = entities.RateTypeSpot
	}
	if s.mode != ModeMulti {
		s.mode = ModeSingle
	}
	if len(s.tracked) == 0 {
		s.tracked = entities.SupportedCurrencies()
	}
	if s.history == nil {
		s.history = NewMemoryHistorySink(DefaultHistoryEntries)
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.multiAmounts[s.base] = DefaultAmount

	s.scheduler = NewRecalcScheduler(s, presenter, SchedulerOptions{
		Frames:   opts.Frames,
		Budget:   opts.Budget,
		Observer: opts.Observer,
		Now:      opts.Now,
	})
	return s
}

func (s *ConverterSession) ID() string {
	return s.id
}

// Scheduler expone el scheduler de la sesión
func (s *ConverterSession) Scheduler() *RecalcScheduler {
	return s.scheduler
}

// SetSnapshot reemplaza el snapshot vigente y recalcula
func (s *ConverterSession) SetSnapshot(ctx context.Context, snapshot *entities.RateSnapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
	s.Recalculate(ctx)
}

// SetRatePreference cambia entre spot y cash
func (s *ConverterSession) SetRatePreference(ctx context.Context, pref entities.RateType) error {
	if pref != entities.RateTypeSpot && pref != entities.RateTypeCash {
		return fmt.Errorf("%w: %q", entities.ErrUnknownRateType, pref)
	}
	s.mu.Lock()
	s.pref = pref
	s.mu.Unlock()
	s.Recalculate(ctx)
	return nil
}

func (s *ConverterSession) SetMode(ctx context.Context, mode ConverterMode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.Recalculate(ctx)
}

// SetPair cambia las monedas del conversor simple
func (s *ConverterSession) SetPair(ctx context.Context, from, to entities.CurrencyCode) error {
	if !from.IsSupported() {
		return fmt.Errorf("%w: %q", entities.ErrUnknownCurrency, from)
	}
	if !to.IsSupported() {
		return fmt.Errorf("%w: %q", entities.ErrUnknownCurrency, to)
	}
	s.mu.Lock()
	s.from, s.to = from, to
	s.mu.Unlock()
	s.Recalculate(ctx)
	return nil
}

// SetFromAmount registra una edición del monto de origen
func (s *ConverterSession) SetFromAmount(ctx context.Context, raw string) {
	s.mu.Lock()
	cleaned := ParseAmountInput(raw, s.from)
	s.fromAmount = cleaned
	s.lastEdited = fieldFrom
	source := s.from
	s.mu.Unlock()
	s.scheduler.Edit(ctx, source, cleaned)
}

// SetToAmount registra una edición del monto de destino (conversión inversa)
func (s *ConverterSession) SetToAmount(ctx context.Context, raw string) {
	s.mu.Lock()
	cleaned := ParseAmountInput(raw, s.to)
	s.toAmount = cleaned
	s.lastEdited = fieldTo
	source := s.to
	s.mu.Unlock()
	s.scheduler.Edit(ctx, source, cleaned)
}

// SetMultiAmount registra una edición en el modo multi-moneda; la moneda editada pasa a ser la base
func (s *ConverterSession) SetMultiAmount(ctx context.Context, code entities.CurrencyCode, raw string) error {
	if !code.IsSupported() {
		return fmt.Errorf("%w: %q", entities.ErrUnknownCurrency, code)
	}
	cleaned := ParseAmountInput(raw, code)
	s.mu.Lock()
	s.base = code
	s.multiAmounts[code] = cleaned
	s.mu.Unlock()
	s.scheduler.Edit(ctx, code, cleaned)
	return nil
}

// QuickAmount aplica uno de los montos rápidos a la moneda activa
func (s *ConverterSession) QuickAmount(ctx context.Context, value float64) {
	raw := strconv.FormatFloat(value, 'f', -1, 64)

	s.mu.RLock()
	mode, base := s.mode, s.base
	s.mu.RUnlock()

	if mode == ModeMulti {
		_ = s.SetMultiAmount(ctx, base, raw)
		return
	}
	s.SetFromAmount(ctx, raw)
}

// QuickAmounts devuelve los montos rápidos de la moneda activa
func (s *ConverterSession) QuickAmounts() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mode == ModeMulti {
		return s.base.QuickAmounts()
	}
	return s.from.QuickAmounts()
}

// SwapCurrencies intercambia monedas y montos del conversor simple
func (s *ConverterSession) SwapCurrencies(ctx context.Context) {
	s.mu.Lock()
	s.from, s.to = s.to, s.from
	s.fromAmount, s.toAmount = s.toAmount, s.fromAmount
	s.mu.Unlock()
	s.Recalculate(ctx)
}

// Recalculate vuelve a emitir la última edición con el estado actual
func (s *ConverterSession) Recalculate(ctx context.Context) {
	s.mu.RLock()
	var source entities.CurrencyCode
	var amount string
	switch {
	case s.mode == ModeMulti:
		source, amount = s.base, s.multiAmounts[s.base]
	case s.lastEdited == fieldTo:
		source, amount = s.to, s.toAmount
	default:
		source, amount = s.from, s.fromAmount
	}
	s.mu.RUnlock()
	s.scheduler.Edit(ctx, source, amount)
}

// AddToHistory guarda la conversión actual del modo simple
func (s *ConverterSession) AddToHistory(ctx context.Context) (entities.ConversionHistoryEntry, error) {
	s.mu.RLock()
	entry := entities.ConversionHistoryEntry{
		From:      s.from,
		To:        s.to,
		Amount:    s.fromAmount,
		Result:    s.toAmount,
		CreatedAt: s.now(),
	}
	s.mu.RUnlock()

	if err := s.history.Append(ctx, entry); err != nil {
		return entry, fmt.Errorf("failed to append conversion history: %w", err)
	}
	return entry, nil
}

// History devuelve las conversiones recientes
func (s *ConverterSession) History(ctx context.Context) ([]entities.ConversionHistoryEntry, error) {
	return s.history.Recent(ctx)
}

// HasOnlyOneRateType indica si el snapshot vigente no justifica el selector spot/cash
func (s *ConverterSession) HasOnlyOneRateType() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.HasOnlyOneRateType()
}

// State devuelve una copia del estado de la sesión
func (s *ConverterSession) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := SessionState{
		ID:                 s.id,
		Mode:               s.mode,
		RateType:           s.pref,
		From:               s.from,
		To:                 s.to,
		FromAmount:         s.fromAmount,
		ToAmount:           s.toAmount,
		BaseCurrency:       s.base,
		HasOnlyOneRateType: s.snapshot.HasOnlyOneRateType(),
	}
	if s.snapshot != nil {
		state.UpdateTime = s.snapshot.UpdateTime()
	}
	if s.mode == ModeMulti {
		state.MultiAmounts = make(map[entities.CurrencyCode]string, len(s.multiAmounts))
		for code, v := range s.multiAmounts {
			state.MultiAmounts[code] = v
		}
	}
	return state
}

// Close descarta cualquier recálculo pendiente
func (s *ConverterSession) Close() {
	s.scheduler.Cancel()
}

// BuildRows convierte la edición a cada moneda visible y actualiza los montos derivados
func (s *ConverterSession) BuildRows(ctx context.Context, edit entities.PendingRecalculation) []entities.FormattedRow {
	s.mu.RLock()
	snapshot, pref, mode := s.snapshot, s.pref, s.mode
	targets := s.targetsLocked(edit.SourceCurrency)
	s.mu.RUnlock()

	amount, hasValue := ParseAmount(edit.SourceAmount)
	rows := make([]entities.FormattedRow, 0, len(targets)+1)
	derived := make(map[entities.CurrencyCode]string, len(targets))

	rows = append(rows, entities.FormattedRow{
		Currency:  edit.SourceCurrency,
		Amount:    FormatAmountDisplay(edit.SourceAmount, edit.SourceCurrency),
		Rate:      FormatExchangeRate(1),
		Status:    entities.RateAvailable.String(),
		IsSource:  true,
		RawAmount: amount,
	})

	for _, code := range targets {
		rate := s.calc.CrossRate(ctx, snapshot, edit.SourceCurrency, code, pref)
		row := entities.FormattedRow{
			Currency: code,
			Rate:     FormatRateResult(rate),
			Status:   rate.Status.String(),
		}
		switch {
		case !hasValue:
			derived[code] = ""
		case !rate.IsAvailable():
			row.Amount = NoDataIndicator
			derived[code] = ""
		default:
			row.RawAmount = amount * rate.Value
			row.Amount = FormatAmount(row.RawAmount, code)
			derived[code] = FormatAmountPlain(row.RawAmount, code)
		}
		rows = append(rows, row)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == ModeMulti {
		for code, v := range derived {
			s.multiAmounts[code] = v
		}
		return rows
	}
	if len(targets) == 1 {
		if s.lastEdited == fieldTo {
			s.fromAmount = derived[targets[0]]
		} else {
			s.toAmount = derived[targets[0]]
		}
	}
	return rows
}

// targetsLocked devuelve las monedas destino de una edición
func (s *ConverterSession) targetsLocked(source entities.CurrencyCode) []entities.CurrencyCode {
	if s.mode == ModeMulti {
		out := make([]entities.CurrencyCode, 0, len(s.tracked))
		for _, code := range s.tracked {
			if code != source {
				out = append(out, code)
			}
		}
		return out
	}
	if s.lastEdited == fieldTo {
		return []entities.CurrencyCode{s.from}
	}
	return []entities.CurrencyCode{s.to}
}
