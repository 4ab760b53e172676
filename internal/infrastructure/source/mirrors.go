package source

import (
	"strings"

	"ratewise-service/internal/domain/entities"
)

// DatePlaceholder se reemplaza por YYYY-MM-DD en las URLs históricas
const DatePlaceholder = "{date}"

const (
	githubRawBase = "https://raw.githubusercontent.com/haotool/app/data/public/rates"
	jsDelivrBase  = "https://cdn.jsdelivr.net/gh/haotool/app@data/public/rates"
)

// MirrorSet es la lista ordenada de mirrors por clase de recurso
type MirrorSet struct {
	latest  []string
	history []string
}

// NewMirrorSet copia las listas; el orden define la prioridad
func NewMirrorSet(latest, history []string) MirrorSet {
	return MirrorSet{
		latest:  append([]string(nil), latest...),
		history: append([]string(nil), history...),
	}
}

// DefaultMirrorSet devuelve GitHub raw primero y jsDelivr como respaldo
func DefaultMirrorSet() MirrorSet {
	return NewMirrorSet(
		[]string{
			githubRawBase + "/latest.json",
			jsDelivrBase + "/latest.json",
		},
		[]string{
			githubRawBase + "/history/" + DatePlaceholder + ".json",
			jsDelivrBase + "/history/" + DatePlaceholder + ".json",
		},
	)
}

// URLs devuelve las URLs concretas del recurso en orden de prioridad
func (m MirrorSet) URLs(id entities.ResourceID) []string {
	if !id.IsHistorical() {
		return append([]string(nil), m.latest...)
	}

	date := id.String()
	urls := make([]string, len(m.history))
	for i, tmpl := range m.history {
		urls[i] = strings.ReplaceAll(tmpl, DatePlaceholder, date)
	}
	return urls
}
