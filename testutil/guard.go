// Package testutil provides import guards used by architecture tests.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// AssertNoTransitiveDependency loads pattern with its dependency graph and
// fails if any reachable package path satisfies forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	viols, err := transitiveDependencyViolations(pattern, forbidden)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	failIfViolations(t, "transitive dependency", reason, viols)
}

// AssertNoDirectImports scans the non-test .go files in dir and fails if any
// import path satisfies forbidden. Subdirectories are not visited.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	failIfViolations(t, "direct imports", reason, viols)
}

// InternalImportForbidden matches any path inside an internal/ tree.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/") || strings.HasPrefix(path, "internal/")
}

// ThirdPartyImportForbidden matches module paths whose first element looks
// like a host name, i.e. anything outside the standard library and this module.
func ThirdPartyImportForbidden(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return strings.Contains(first, ".")
}

var loadPackages = func(pattern string) ([]*packages.Package, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}
	return packages.Load(cfg, pattern)
}

func transitiveDependencyViolations(pattern string, forbidden func(path string) bool) ([]string, error) {
	pkgs, err := loadPackages(pattern)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		if forbidden(p.PkgPath) {
			seen[p.PkgPath] = struct{}{}
		}
	})
	viols := make([]string, 0, len(seen))
	for path := range seen {
		viols = append(viols, path)
	}
	sort.Strings(viols)
	return viols, nil
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		fileAst, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range fileAst.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, kind, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden %s detected (%s):\n%s", kind, reason, strings.Join(viols, "\n"))
	}
}
