package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

const modulesPrefix = "stillpoint/internal/modules/"

var layers = []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"}

// importsOf returns the stillpoint imports of every non-test file under root,
// keyed by slash-separated file path.
func importsOf(t *testing.T, root string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()
	out := map[string][]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(path)
		for _, imp := range file.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			if strings.HasPrefix(importPath, "stillpoint/") {
				out[key] = append(out[key], importPath)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return out
}

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	for path, imports := range importsOf(t, filepath.Join("..", "modules")) {
		module, layer := locate(path)
		if module == "" || layer == "" {
			continue
		}
		for _, importPath := range imports {
			if !strings.HasPrefix(importPath, modulesPrefix) {
				continue
			}
			if reason := layerViolation(module, layer, importPath); reason != "" {
				t.Errorf("%s (%s) imports %s: %s", path, layer, importPath, reason)
			}
		}
	}
}

func TestUIOnlyImportsModuleDTOs(t *testing.T) {
	t.Parallel()
	for path, imports := range importsOf(t, filepath.Join("..", "ui")) {
		for _, importPath := range imports {
			if strings.HasPrefix(importPath, modulesPrefix) && !strings.HasSuffix(importPath, "/dto") {
				t.Errorf("%s imports %s: the UI talks to modules through its own ports and dto types", path, importPath)
			}
		}
	}
}

func TestPlatformStaysIndependent(t *testing.T) {
	t.Parallel()
	for path, imports := range importsOf(t, filepath.Join("..", "platform")) {
		for _, importPath := range imports {
			if !strings.HasPrefix(importPath, "stillpoint/internal/platform/") {
				t.Errorf("%s imports %s: platform packages may only depend on each other", path, importPath)
			}
		}
	}
}

func locate(path string) (module, layer string) {
	_, rest, ok := strings.Cut(path, "modules/")
	if !ok {
		return "", ""
	}
	module, _, _ = strings.Cut(rest, "/")
	for _, candidate := range layers {
		if strings.Contains(path, "/"+candidate+"/") {
			return module, candidate
		}
	}
	return module, ""
}

func layerOf(importPath string) string {
	for _, candidate := range layers {
		if strings.Contains(importPath+"/", "/"+candidate+"/") {
			return candidate
		}
	}
	return ""
}

func layerViolation(module, layer, importPath string) string {
	target := layerOf(importPath)
	if !strings.HasPrefix(importPath, modulesPrefix+module+"/") {
		if target == "port/in" || target == "dto" {
			return ""
		}
		return "other modules are reachable only through port/in and dto"
	}
	switch layer {
	case "adapter/in":
		if target != "port/in" && target != "dto" {
			return "inbound adapters drive the module through port/in"
		}
	case "usecase":
		if target == "adapter/in" || target == "adapter/out" {
			return "usecases never see adapters"
		}
	case "service":
		if target == "adapter/in" || target == "adapter/out" || target == "usecase" {
			return "services sit below usecases and adapters"
		}
	case "domain":
		if target != "domain" {
			return "domain depends on nothing else in its module"
		}
	}
	return ""
}
