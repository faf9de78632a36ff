package blob

import (
	memorystore "stocktake/internal/infra/blob/memory"
)

// NewMemory returns an in-memory blob.Store suitable for tests.
func NewMemory() Store { return memorystore.New() }
