package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyBlobPackageImportsBackends keeps the storage backends behind Store.
func TestOnlyBlobPackageImportsBackends(t *testing.T) {
	const (
		backends = "mousecolony/internal/infra/blob"
		allowed  = "mousecolony/internal/blob"
	)
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "mousecolony/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		if hasPathPrefix(pkg.PkgPath, allowed) || hasPathPrefix(pkg.PkgPath, backends) {
			continue
		}
		for imp := range pkg.Imports {
			if hasPathPrefix(imp, backends) {
				violations = append(violations, pkg.PkgPath+" imports "+imp)
			}
		}
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("forbidden blob backend import: %s", v)
	}
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
