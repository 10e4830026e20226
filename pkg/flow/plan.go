package flow

import (
	"fmt"

	"github.com/lowcode-cicd/lcpipe/pkg/environment"
)

// Hop is one promotion between two adjacent environments in the chain,
// expanded to the flow's step list.
type Hop struct {
	From  environment.Environment
	To    environment.Environment
	Steps []Step
}

// Plan is the fully resolved execution plan for one pipeline run.
type Plan struct {
	Flow Flow
	Hops []Hop
}

// PlanOptions carries the run inputs the plan depends on beyond the chain
// itself.
type PlanOptions struct {
	// HasOverrides reports whether the caller supplied override text for the
	// target environments.
	HasOverrides bool
	// HasScripts reports whether the caller supplied a database script
	// directory.
	HasScripts bool
}

// BuildPlan expands a flow over an environment chain into the hop-by-hop
// plan. The chain is promoted pairwise in order (Dev -> QA, QA -> Prod);
// chains shorter than two environments cannot be promoted.
func BuildPlan(f Flow, chain []environment.Environment, opts PlanOptions) (*Plan, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if len(chain) < minChainLength {
		return nil, fmt.Errorf("%w: got %d environments", ErrChainTooShort, len(chain))
	}
	if f.RequiresOverrides() && !opts.HasOverrides {
		return nil, WrapMissingInput(f, "override file")
	}
	if f.RequiresScripts() && !opts.HasScripts {
		return nil, WrapMissingInput(f, "database script directory")
	}

	steps := f.Steps()
	hops := make([]Hop, 0, len(chain)-1)
	for i := 0; i < len(chain)-1; i++ {
		hops = append(hops, Hop{
			From:  chain[i],
			To:    chain[i+1],
			Steps: steps,
		})
	}

	return &Plan{Flow: f, Hops: hops}, nil
}

// minChainLength is the smallest chain that still contains a promotion.
const minChainLength = 2

// Describe renders the plan as human-readable lines, one per step, suitable
// for the plan command's output. Approval-gated targets are annotated so the
// operator can see where the CI platform will pause the run.
func (p *Plan) Describe() []string {
	lines := make([]string, 0, len(p.Hops)*(len(p.Flow.Steps())+1))
	for _, hop := range p.Hops {
		gate := ""
		if hop.To.RequireApproval {
			gate = " (requires approval)"
		}
		lines = append(lines, fmt.Sprintf("%s -> %s%s", hop.From.Name, hop.To.Name, gate))
		for _, step := range hop.Steps {
			lines = append(lines, fmt.Sprintf("  %s", step))
		}
	}
	return lines
}
