package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyBlobPackageImportsInfra keeps the concrete document stores behind
// the blob facade: the service and CLI depend on blob.Store only.
func TestOnlyBlobPackageImportsInfra(t *testing.T) {
	const (
		infraPrefix   = "stocktake/internal/infra/blob"
		allowedPrefix = "stocktake/internal/blob"
	)

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "stocktake/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if hasPathPrefix(pkg.PkgPath, allowedPrefix) || hasPathPrefix(pkg.PkgPath, infraPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if hasPathPrefix(importPath, infraPrefix) {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return
	}
	violations := make([]string, 0, len(seen))
	for v := range seen {
		violations = append(violations, v)
	}
	sort.Strings(violations)
	t.Fatalf("forbidden imports of infra blob packages:\n%s", strings.Join(violations, "\n"))
}

func hasPathPrefix(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
