// Package flow defines the named pipeline flows and the step plans they
// expand to. A flow is selected by the pipeline trigger, never derived from
// ambient state: callers parse the trigger input once and pass the resulting
// Flow value down explicitly.
package flow

import (
	"strings"

	"github.com/lowcode-cicd/lcpipe/pkg/debug"
)

// Flow identifies one of the named pipeline variants. The variants differ in
// which external Core operations run for each promotion hop and whether
// overrides and database scripts are part of the run.
type Flow string

// Named flows.
const (
	// FlowA promotes the exported package as-is.
	FlowA Flow = "A"
	// FlowB builds a customization file from environment overrides before
	// promoting.
	FlowB Flow = "B"
	// FlowC additionally prepares database scripts for the target
	// environment.
	FlowC Flow = "C"
)

// Step is a single Core operation within a promotion hop.
type Step string

// Steps in execution order. Every flow starts with an export from the source
// environment and ends with a promote into the target environment.
const (
	StepExport             Step = "export"
	StepBuildCustomization Step = "build-icf"
	StepPrepareDBScripts   Step = "prepare-db-scripts"
	StepPromote            Step = "promote"
)

// ParseFlow converts a trigger input string into a Flow. Matching is
// case-insensitive and tolerates surrounding whitespace. An unrecognized
// value is an error; there is no default flow.
func ParseFlow(input string) (Flow, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "A":
		return FlowA, nil
	case "B":
		return FlowB, nil
	case "C":
		return FlowC, nil
	default:
		return "", WrapUnknownFlow(input)
	}
}

// Steps returns the ordered step list for the flow.
func (f Flow) Steps() []Step {
	switch f {
	case FlowA:
		return []Step{StepExport, StepPromote}
	case FlowB:
		return []Step{StepExport, StepBuildCustomization, StepPromote}
	case FlowC:
		return []Step{StepExport, StepBuildCustomization, StepPrepareDBScripts, StepPromote}
	default:
		return nil
	}
}

// RequiresOverrides reports whether the flow consumes an override set.
func (f Flow) RequiresOverrides() bool {
	return f == FlowB || f == FlowC
}

// RequiresScripts reports whether the flow consumes a database script
// directory.
func (f Flow) RequiresScripts() bool {
	return f == FlowC
}

// String returns the flow's trigger name.
func (f Flow) String() string {
	return string(f)
}

// Validate checks that the flow is one of the named variants.
func (f Flow) Validate() error {
	switch f {
	case FlowA, FlowB, FlowC:
		debug.Printf("Flow %s validated", f)
		return nil
	default:
		return WrapUnknownFlow(string(f))
	}
}
