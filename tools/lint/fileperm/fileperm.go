// Package fileperm provides a linter that flags hardcoded file permission
// literals. Artifact files and the chain config carry secret-adjacent data,
// so permissions are centralized in pkg/fileutil; this check keeps stray
// octal literals out of WriteFile and MkdirAll calls.
package fileperm

import (
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer is a custom analysis pass that checks for hardcoded file permissions.
var Analyzer = &analysis.Analyzer{
	Name: "fileperm",
	Doc:  "checks for hardcoded file permission literals instead of pkg/fileutil constants",
	Run:  run,
}

const (
	// writeFilePermArgIndex is the index of the permission argument in
	// WriteFile-style functions (path, data, perm).
	writeFilePermArgIndex = 2
	// mkdirPermArgIndex is the index of the permission argument in
	// MkdirAll-style functions (path, perm).
	mkdirPermArgIndex = 1
)

// permSuggestions maps flagged literals to the fileutil constant to use.
var permSuggestions = map[string]string{
	"0o600": "fileutil.ReadWriteUserPermission",
	"0600":  "fileutil.ReadWriteUserPermission",
	"0o644": "fileutil.ReadWriteUserReadOthers",
	"0644":  "fileutil.ReadWriteUserReadOthers",
	"0o755": "fileutil.DirPermission",
	"0755":  "fileutil.DirPermission",
}

func run(pass *analysis.Pass) (interface{}, error) {
	// The fileutil package defines the constants; literals there are the
	// definitions, not violations.
	if pass.Pkg.Name() == "fileperm" || pass.Pkg.Name() == "fileutil" {
		return (*struct{})(nil), nil
	}

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fun, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			switch {
			case strings.HasSuffix(fun.Sel.Name, "WriteFile"):
				checkPermArg(pass, call, writeFilePermArgIndex)
			case strings.HasSuffix(fun.Sel.Name, "MkdirAll") || strings.HasSuffix(fun.Sel.Name, "Mkdir"):
				checkPermArg(pass, call, mkdirPermArgIndex)
			}
			return true
		})
	}
	return (*struct{})(nil), nil
}

// checkPermArg reports the call's permission argument when it is one of the
// hardcoded literals a fileutil constant exists for.
func checkPermArg(pass *analysis.Pass, call *ast.CallExpr, argIndex int) {
	if len(call.Args) <= argIndex {
		return
	}
	lit, ok := call.Args[argIndex].(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return
	}
	if suggestion, found := permSuggestions[lit.Value]; found {
		pass.Reportf(lit.Pos(), "use %s instead of hardcoded '%s'", suggestion, lit.Value)
	}
}
