/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: orchestrator.go
Description: Step orchestrator. Drives vector modules through their
approval-gated steps in order, recovers expired sessions once per incident
with a single retry of the interrupted step, and aggregates per-vector
reports into the run summary.
*/

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/kleascm/hackbench/pkg/logging"
)

// Orchestrator runs vector modules sequentially. It owns step numbering,
// approval gating, and session recovery; modules own the work inside each
// step.
type Orchestrator struct {
	modules   []VectorModule
	approve   ApprovalFunc
	recoverer SessionRecoverer
	logger    *logging.Logger
	summary   *RunSummary
}

// NewOrchestrator builds an orchestrator. approve defaults to AutoApprove
// when nil; recoverer may be nil for targets without session semantics.
func NewOrchestrator(modules []VectorModule, approve ApprovalFunc, recoverer SessionRecoverer, logger *logging.Logger) *Orchestrator {
	if approve == nil {
		approve = AutoApprove
	}
	return &Orchestrator{
		modules:   modules,
		approve:   approve,
		recoverer: recoverer,
		logger:    logger,
		summary:   &RunSummary{},
	}
}

// Summary returns the aggregated run summary. Valid after Run returns.
func (o *Orchestrator) Summary() *RunSummary { return o.summary }

// Run executes every module's steps in order. Declined steps are skipped, not
// failed. A step returning ErrSessionExpired triggers one recovery and one
// retry; any other error from a step aborts the run. Each module's report is
// folded into the summary even when its steps were cut short.
func (o *Orchestrator) Run(ctx context.Context) error {
	for _, module := range o.modules {
		o.logger.Section(fmt.Sprintf("%s XSS", module.Vector()))
		o.logger.Info("Starting vector module", map[string]interface{}{
			"vector":      string(module.Vector()),
			"description": module.Description(),
		})

		err := o.runModule(ctx, module)
		o.summary.Add(module.Report())
		if err != nil {
			return fmt.Errorf("vector %s aborted: %w", module.Vector(), err)
		}
	}
	return nil
}

func (o *Orchestrator) runModule(ctx context.Context, module VectorModule) error {
	for num, step := range module.Steps() {
		if err := ctx.Err(); err != nil {
			return err
		}

		o.logger.Step(num+1, step.Title, "")
		if step.Prompt != "" && !o.approve(step.Prompt) {
			o.logger.Narrative("[skipped] " + step.Title)
			continue
		}

		if err := o.runStep(ctx, step); err != nil {
			return err
		}
		if o.recoverer != nil {
			o.recoverer.MarkHealthy()
		}
	}
	return nil
}

// runStep executes one step, recovering the session and retrying exactly once
// when the step reports an expired session. A second expiry on the retried
// step surfaces through RecoverIfExpired as an auth failure.
func (o *Orchestrator) runStep(ctx context.Context, step Step) error {
	err := step.Run(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrSessionExpired) {
		return err
	}
	if o.recoverer == nil {
		return err
	}

	o.logger.Warning("Session expired mid-step, recovering", map[string]interface{}{
		"step": step.Title,
	})
	if err := o.recoverer.RecoverIfExpired(ctx); err != nil {
		return err
	}
	o.logger.Narrative("[+] Session recovered, retrying step: " + step.Title)

	if err := step.Run(ctx); err != nil {
		if errors.Is(err, ErrSessionExpired) {
			// Let the recovery counter decide; it returns the auth error
			// on the second consecutive expiry.
			if rerr := o.recoverer.RecoverIfExpired(ctx); rerr != nil {
				return rerr
			}
			return err
		}
		return err
	}
	return nil
}
