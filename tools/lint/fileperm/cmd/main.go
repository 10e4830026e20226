// Command fileperm-lint checks for hardcoded file permissions.
package main

import (
	"github.com/lowcode-cicd/lcpipe/tools/lint/fileperm"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(fileperm.Analyzer)
}
