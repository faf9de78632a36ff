package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

const maxUniqueAttempts = 1000

// UniqueKey returns the n-th candidate key for name under dir: the name itself
// for n == 0, otherwise "base (n).ext".
func UniqueKey(dir, name string, n int) string {
	if n == 0 {
		return path.Join(dir, name)
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return path.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
}

// PutUnique writes body under dir/name, numbering the name while the key is taken.
func PutUnique(ctx context.Context, store Store, dir, name string, body []byte, opts PutOptions) (Info, error) {
	for n := 0; n < maxUniqueAttempts; n++ {
		info, err := store.Put(ctx, UniqueKey(dir, name, n), bytes.NewReader(body), opts)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrExists) {
			return Info{}, err
		}
	}
	return Info{}, fmt.Errorf("no free key for %s after %d attempts: %w", name, maxUniqueAttempts, ErrExists)
}
