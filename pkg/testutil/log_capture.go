// Package testutil provides shared helpers for tests, primarily log capture.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lowcode-cicd/lcpipe/pkg/log"
)

// CaptureLogOutput redirects log output using log.SetOutput for the duration
// of testFunc and returns the captured content. The original output writer
// and log level are restored before returning.
//
// Example usage:
//
//	output, err := testutil.CaptureLogOutput(log.LevelDebug, func() {
//	    log.Info("This will be captured")
//	})
//	require.NoError(t, err)
//	assert.Contains(t, output, "This will be captured")
func CaptureLogOutput(logLevel log.Level, testFunc func()) (string, error) {
	originalLevel := log.CurrentLevel()

	var logBuf bytes.Buffer
	restoreLog := log.SetOutput(&logBuf)
	defer restoreLog()

	log.SetLevel(logLevel)
	defer log.SetLevel(originalLevel)

	var panicErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = fmt.Errorf("panic during log capture: %v", r)
			}
		}()
		testFunc()
	}()

	return logBuf.String(), panicErr
}

// CaptureJSONLogs captures log output during testFunc and parses each line
// as a JSON record. It returns the raw output, the parsed records, and any
// error from capture or parsing.
func CaptureJSONLogs(logLevel log.Level, testFunc func()) (string, []map[string]interface{}, error) {
	output, err := CaptureLogOutput(logLevel, testFunc)
	if err != nil {
		return output, nil, err
	}

	var parsed []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		var record map[string]interface{}
		if unmarshalErr := json.Unmarshal([]byte(line), &record); unmarshalErr != nil {
			return output, parsed, fmt.Errorf("failed to parse log line as JSON: %w (line: %s)", unmarshalErr, line)
		}
		parsed = append(parsed, record)
	}

	return output, parsed, nil
}

// ContainsLogRecord reports whether any parsed record has the given message
// and, if attrs is non-nil, all the given attribute values.
func ContainsLogRecord(records []map[string]interface{}, msg string, attrs map[string]interface{}) bool {
	for _, record := range records {
		if record["msg"] != msg {
			continue
		}
		matched := true
		for key, want := range attrs {
			if record[key] != want {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
