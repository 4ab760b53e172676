package interfaces

import (
	"context"

	"ratewise-service/internal/domain/entities"
)

// Presenter recibe las filas formateadas de cada ciclo de edición
type Presenter interface {
	Present(ctx context.Context, rows []entities.FormattedRow)
}

// PresenterFunc adapta una función a Presenter
type PresenterFunc func(ctx context.Context, rows []entities.FormattedRow)

func (f PresenterFunc) Present(ctx context.Context, rows []entities.FormattedRow) {
	f(ctx, rows)
}

// ConversionHistorySink recibe el historial de conversiones del usuario.
// La persistencia real es responsabilidad de la capa externa.
type ConversionHistorySink interface {
	Append(ctx context.Context, entry entities.ConversionHistoryEntry) error
	Recent(ctx context.Context) ([]entities.ConversionHistoryEntry, error)
}
