package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency code")
	ErrUnknownRateType  = errors.New("unknown rate type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidResource  = errors.New("invalid resource id")
	ErrSnapshotRequired = errors.New("rate snapshot required")
)

// CurrencyCode es un código ISO 4217 del conjunto cerrado de monedas soportadas
type CurrencyCode string

const (
	TWD CurrencyCode = "TWD"
	USD CurrencyCode = "USD"
	HKD CurrencyCode = "HKD"
	GBP CurrencyCode = "GBP"
	AUD CurrencyCode = "AUD"
	CAD CurrencyCode = "CAD"
	SGD CurrencyCode = "SGD"
	CHF CurrencyCode = "CHF"
	JPY CurrencyCode = "JPY"
	EUR CurrencyCode = "EUR"
	KRW CurrencyCode = "KRW"
	CNY CurrencyCode = "CNY"
	NZD CurrencyCode = "NZD"
	THB CurrencyCode = "THB"
	PHP CurrencyCode = "PHP"
	IDR CurrencyCode = "IDR"
	VND CurrencyCode = "VND"
	MYR CurrencyCode = "MYR"
)

// PivotCurrency es la moneda doméstica contra la que se expresan todas las tasas
const PivotCurrency = TWD

// CurrencyInfo describe una moneda soportada
type CurrencyInfo struct {
	Code     CurrencyCode `json:"code"`
	Name     string       `json:"name"`
	Symbol   string       `json:"symbol"`
	Decimals int32        `json:"decimals"`
}

var currencyTable = []CurrencyInfo{
	{Code: TWD, Name: "New Taiwan Dollar", Symbol: "NT$", Decimals: 2},
	{Code: USD, Name: "US Dollar", Symbol: "$", Decimals: 2},
	{Code: HKD, Name: "Hong Kong Dollar", Symbol: "HK$", Decimals: 2},
	{Code: GBP, Name: "British Pound", Symbol: "£", Decimals: 2},
	{Code: AUD, Name: "Australian Dollar", Symbol: "A$", Decimals: 2},
	{Code: CAD, Name: "Canadian Dollar", Symbol: "C$", Decimals: 2},
	{Code: SGD, Name: "Singapore Dollar", Symbol: "S$", Decimals: 2},
	{Code: CHF, Name: "Swiss Franc", Symbol: "CHF", Decimals: 2},
	{Code: JPY, Name: "Japanese Yen", Symbol: "¥", Decimals: 0},
	{Code: EUR, Name: "Euro", Symbol: "€", Decimals: 2},
	{Code: KRW, Name: "South Korean Won", Symbol: "₩", Decimals: 0},
	{Code: CNY, Name: "Chinese Yuan", Symbol: "¥", Decimals: 2},
	{Code: NZD, Name: "New Zealand Dollar", Symbol: "NZ$", Decimals: 2},
	{Code: THB, Name: "Thai Baht", Symbol: "฿", Decimals: 2},
	{Code: PHP, Name: "Philippine Peso", Symbol: "₱", Decimals: 2},
	{Code: IDR, Name: "Indonesian Rupiah", Symbol: "Rp", Decimals: 0},
	{Code: VND, Name: "Vietnamese Dong", Symbol: "₫", Decimals: 0},
	{Code: MYR, Name: "Malaysian Ringgit", Symbol: "RM", Decimals: 2},
}

var currencyIndex = func() map[CurrencyCode]CurrencyInfo {
	idx := make(map[CurrencyCode]CurrencyInfo, len(currencyTable))
	for _, info := range currencyTable {
		idx[info.Code] = info
	}
	return idx
}()

// ParseCurrencyCode normaliza y valida un código contra el conjunto soportado
func ParseCurrencyCode(raw string) (CurrencyCode, error) {
	code := CurrencyCode(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := currencyIndex[code]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, raw)
	}
	return code, nil
}

// SupportedCurrencies devuelve los códigos en el orden de presentación
func SupportedCurrencies() []CurrencyCode {
	out := make([]CurrencyCode, len(currencyTable))
	for i, info := range currencyTable {
		out[i] = info.Code
	}
	return out
}

// Info devuelve la descripción de la moneda; ok es false si no está soportada
func (c CurrencyCode) Info() (CurrencyInfo, bool) {
	info, ok := currencyIndex[c]
	return info, ok
}

// Decimals returns the display precision, 2 for unknown codes.
func (c CurrencyCode) Decimals() int32 {
	if info, ok := currencyIndex[c]; ok {
		return info.Decimals
	}
	return 2
}

func (c CurrencyCode) IsPivot() bool {
	return c == PivotCurrency
}

func (c CurrencyCode) IsSupported() bool {
	_, ok := currencyIndex[c]
	return ok
}

func (c CurrencyCode) String() string {
	return string(c)
}

// RateType distingue entre tasa spot (transferencia) y cash (billete)
type RateType string

const (
	RateTypeSpot RateType = "spot"
	RateTypeCash RateType = "cash"
)

// ParseRateType valida el tipo de tasa solicitado
func ParseRateType(raw string) (RateType, error) {
	switch RateType(strings.ToLower(strings.TrimSpace(raw))) {
	case RateTypeSpot:
		return RateTypeSpot, nil
	case RateTypeCash:
		return RateTypeCash, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRateType, raw)
	}
}

// Other devuelve el tipo alternativo usado como fallback
func (t RateType) Other() RateType {
	if t == RateTypeCash {
		return RateTypeSpot
	}
	return RateTypeCash
}

func (t RateType) String() string {
	return string(t)
}

var quickAmounts = map[CurrencyCode][]float64{
	TWD: {100, 500, 1000, 3000, 5000},
	USD: {10, 20, 50, 100, 500},
	EUR: {10, 20, 50, 100, 500},
	GBP: {10, 20, 50, 100, 500},
	JPY: {1000, 3000, 5000, 10000, 30000},
	KRW: {10000, 30000, 50000, 100000, 300000},
	HKD: {100, 200, 500, 1000, 5000},
	CNY: {100, 200, 500, 1000, 5000},
	AUD: {20, 50, 100, 200, 500},
	CAD: {20, 50, 100, 200, 500},
	SGD: {10, 20, 50, 100, 500},
	CHF: {10, 20, 50, 100, 500},
	NZD: {20, 50, 100, 200, 500},
	THB: {100, 300, 500, 1000, 3000},
	PHP: {500, 1000, 2000, 5000, 10000},
	IDR: {50000, 100000, 300000, 500000, 1000000},
	VND: {100000, 200000, 500000, 1000000, 2000000},
	MYR: {10, 20, 50, 100, 500},
}

// QuickAmounts devuelve los montos habituales de la moneda (billetes, retiros de ATM)
func (c CurrencyCode) QuickAmounts() []float64 {
	amounts, ok := quickAmounts[c]
	if !ok {
		return nil
	}
	out := make([]float64, len(amounts))
	copy(out, amounts)
	return out
}
