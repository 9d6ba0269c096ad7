package ports

import (
	"context"

	"github.com/mwdvs/coldwatch/internal/domain"
)

// InventoryRepository loads and stores the persisted inventory document.
// Load performs full schema validation: an incomplete or malformed document
// fails with an error wrapping domain.ErrSchemaInvalid before any polling
// can start.
type InventoryRepository interface {
	Load(ctx context.Context) (domain.Inventory, error)
	Save(ctx context.Context, inv domain.Inventory) error
}
