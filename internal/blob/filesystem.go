package blob

import (
	"stocktake/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed blob.Store rooted at root
// (default ./stocktake-files).
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
