package entities

import (
	"fmt"
	"time"
)

const (
	// DateLayout es el formato de fecha de los archivos históricos
	DateLayout = "2006-01-02"

	latestResource = "latest"
)

// ResourceID identifica un recurso lógico: "latest" o una fecha YYYY-MM-DD
type ResourceID struct {
	date time.Time
	kind string
}

// LatestResource devuelve el identificador del recurso "latest"
func LatestResource() ResourceID {
	return ResourceID{kind: latestResource}
}

// HistoricalResource construye el identificador para el día calendario de t
func HistoricalResource(t time.Time) ResourceID {
	y, m, d := t.Date()
	return ResourceID{kind: "history", date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseResourceID acepta "latest" o una fecha con ceros a la izquierda
func ParseResourceID(raw string) (ResourceID, error) {
	if raw == latestResource {
		return LatestResource(), nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil || t.Format(DateLayout) != raw {
		return ResourceID{}, fmt.Errorf("%w: %q", ErrInvalidResource, raw)
	}
	return HistoricalResource(t), nil
}

func (r ResourceID) IsLatest() bool {
	return r.kind == latestResource
}

func (r ResourceID) IsHistorical() bool {
	return r.kind == "history"
}

// Date devuelve la fecha del recurso histórico; cero para "latest"
func (r ResourceID) Date() time.Time {
	return r.date
}

// String es la clave canónica del recurso, usada también como clave de cache
func (r ResourceID) String() string {
	if r.IsHistorical() {
		return r.date.Format(DateLayout)
	}
	return latestResource
}
