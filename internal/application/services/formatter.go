package services

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"ratewise-service/internal/domain/entities"
)

const (
	NoDataIndicator   = "—" // Se muestra cuando no hay tasa disponible
	ExchangeRateScale = 4
)

// FormatAmount formatea un monto con separador de miles y los decimales de la moneda
func FormatAmount(value float64, code entities.CurrencyCode) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}
	return groupThousands(decimal.NewFromFloat(value).StringFixed(code.Decimals()))
}

// FormatAmountPlain redondea a los decimales de la moneda sin separadores,
// apto para volver a usarse como entrada
func FormatAmountPlain(value float64, code entities.CurrencyCode) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}
	return decimal.NewFromFloat(value).StringFixed(code.Decimals())
}

// FormatExchangeRate formatea una tasa con 4 decimales
func FormatExchangeRate(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0.0000"
	}
	return groupThousands(decimal.NewFromFloat(value).StringFixed(ExchangeRateScale))
}

// FormatRateResult usa el indicador de "sin datos" para tasas no disponibles
func FormatRateResult(r entities.RateResult) string {
	if r.Status == entities.RateUnavailable {
		return NoDataIndicator
	}
	return FormatExchangeRate(r.Value)
}

// FormatAmountDisplay formatea lo que el usuario escribió; un texto no numérico se devuelve tal cual
func FormatAmountDisplay(raw string, code entities.CurrencyCode) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	v, ok := ParseAmount(raw)
	if !ok {
		return raw
	}
	return FormatAmount(v, code)
}

// ParseAmountInput limpia la entrada del usuario: sólo dígitos y un punto decimal,
// con la parte fraccionaria truncada a los decimales de la moneda.
func ParseAmountInput(raw string, code entities.CurrencyCode) string {
	var b strings.Builder
	seenDot := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	intPart, frac, hasDot := strings.Cut(cleaned, ".")
	if !hasDot {
		return cleaned
	}
	places := int(code.Decimals())
	if places == 0 {
		return intPart
	}
	if len(frac) > places {
		frac = frac[:places]
	}
	return intPart + "." + frac
}

// ParseAmount interpreta un monto; false si está vacío o no es numérico
func ParseAmount(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// groupThousands inserta comas en la parte entera de un número ya redondeado
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
