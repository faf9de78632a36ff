package core

import (
	"go/types"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestPersistentStoreImplementationsHardening ensures only the backend packages
// under internal/infra/persistence implement domain.PersistentStore.
func TestPersistentStoreImplementationsHardening(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes, Tests: true}
	pkgs, err := packages.Load(cfg, "stocktake/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	var persistentStore *types.Interface
	for _, p := range pkgs {
		if p.PkgPath != "stocktake/pkg/domain" || p.Types == nil {
			continue
		}
		obj := p.Types.Scope().Lookup("PersistentStore")
		if obj == nil {
			t.Fatalf("domain.PersistentStore not found")
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			t.Fatalf("domain.PersistentStore is not an interface")
		}
		persistentStore = iface
	}
	if persistentStore == nil {
		t.Fatalf("failed to resolve PersistentStore interface")
	}
	allowed := map[string]struct{}{
		"stocktake/internal/infra/persistence/memory":   {},
		"stocktake/internal/infra/persistence/sqlite":   {},
		"stocktake/internal/infra/persistence/postgres": {},
		"stocktake/internal/infra/persistence/redis":    {},
	}
	seen := map[string]struct{}{}
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			named, ok := p.Types.Scope().Lookup(name).Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			if !types.Implements(types.NewPointer(named), persistentStore) {
				continue
			}
			if _, ok := allowed[p.PkgPath]; !ok {
				seen[p.PkgPath+"."+name] = struct{}{}
			}
		}
	}
	if len(seen) > 0 {
		unexpected := make([]string, 0, len(seen))
		for name := range seen {
			unexpected = append(unexpected, name)
		}
		sort.Strings(unexpected)
		_, file, line, _ := runtime.Caller(0)
		t.Fatalf("unexpected PersistentStore implementations (extend the allowed list when adding a backend):\nfile=%s:%d\n%s", filepath.Base(file), line, unexpected)
	}
}
