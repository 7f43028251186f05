package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "meetfix"

// layerRule lists what a service layer may import besides the standard
// library. "@" stands for the importing service's own package path.
type layerRule struct {
	allowed []string
}

var layerRules = map[string]layerRule{
	"domain": {allowed: []string{"@/domain", modulePath + "/contracts/errkind"}},
	"ports": {allowed: []string{
		"@/domain",
		modulePath + "/contracts",
		modulePath + "/internal/shared",
	}},
	"application": {allowed: []string{
		"@/application",
		"@/domain",
		"@/ports",
		modulePath + "/contracts",
		"golang.org/x/sync",
	}},
	"transport": {allowed: []string{"@/domain"}},
}

type finding struct {
	file   string
	line   int
	target string
	reason string
}

func main() {
	root := flag.String("root", "contexts", "directory holding bounded contexts")
	flag.Parse()

	findings, err := scan(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary scan failed: %v\n", err)
		os.Exit(2)
	}
	if len(findings) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.file != b.file {
			return a.file < b.file
		}
		if a.line != b.line {
			return a.line < b.line
		}
		return a.target < b.target
	})
	fmt.Printf("%d boundary violation(s):\n", len(findings))
	for _, f := range findings {
		fmt.Printf("  %s:%d %q: %s\n", f.file, f.line, f.target, f.reason)
	}
	os.Exit(1)
}

func scan(root string) ([]finding, error) {
	var findings []finding
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		// contexts/<context>/<service>/<layer>/...
		slashed := filepath.ToSlash(path)
		parts := strings.Split(slashed, "/")
		if len(parts) < 4 {
			return nil
		}
		servicePath := strings.Join([]string{modulePath, "contexts", parts[1], parts[2]}, "/")
		findings = append(findings, checkFile(path, slashed, servicePath, parts[3])...)
		return nil
	})
	return findings, err
}

func checkFile(path string, display string, servicePath string, layer string) []finding {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []finding{{file: display, line: 1, reason: "file does not parse: " + err.Error()}}
	}

	rule, layered := layerRules[layer]
	var findings []finding
	for _, imp := range file.Imports {
		target := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line

		if within(target, modulePath+"/contexts") && !within(target, servicePath) {
			findings = append(findings, finding{display, line, target, "services talk through contracts and ports, not each other's packages"})
			continue
		}
		if !layered || standardLibrary(target) {
			continue
		}
		if !permitted(target, rule, servicePath) {
			findings = append(findings, finding{display, line, target, layer + " layer may not import this package"})
		}
	}
	return findings
}

func permitted(target string, rule layerRule, servicePath string) bool {
	for _, prefix := range rule.allowed {
		prefix = strings.Replace(prefix, "@", servicePath, 1)
		if within(target, prefix) {
			return true
		}
	}
	return false
}

func within(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// standardLibrary treats any path whose first element has no dot as stdlib.
func standardLibrary(path string) bool {
	if within(path, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}
