package main

import (
	"os"

	"github.com/lowcode-cicd/lcpipe/pkg/debug"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	log "github.com/lowcode-cicd/lcpipe/pkg/log"
)

// main is the entry point of the application. It runs the root command and
// converts returned errors into process exit codes.
func main() {
	if os.Getenv("LCPIPE_DEBUG") != "" {
		debug.Init(true)
	}

	if err := Execute(); err != nil {
		if code, ok := exitcodes.IsExitCodeError(err); ok {
			log.Error("Command failed", "error", err.Error(), "exitCode", code)
			os.Exit(code)
		}
		log.Error("Command failed", "error", err.Error())
		os.Exit(exitcodes.ExitGeneralRuntimeError)
	}
}
