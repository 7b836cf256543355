/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: orchestrator_test.go
Description: Tests for the step orchestrator. Covers approval gating, report
aggregation, bounded session recovery with a single step retry, and abort
behavior on unexpected step errors.
*/

package core_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModule is a scriptable vector module.
type fakeModule struct {
	vector core.Vector
	steps  []core.Step
	report *core.VectorReport
}

func (m *fakeModule) Vector() core.Vector        { return m.vector }
func (m *fakeModule) Description() string        { return "fake module" }
func (m *fakeModule) Steps() []core.Step         { return m.steps }
func (m *fakeModule) Report() *core.VectorReport { return m.report }

// fakeRecoverer counts recovery calls and can be scripted to fail.
type fakeRecoverer struct {
	recoveries int
	healthy    int
	failAtCall int // 0 disables
}

func (r *fakeRecoverer) RecoverIfExpired(ctx context.Context) error {
	r.recoveries++
	if r.failAtCall > 0 && r.recoveries >= r.failAtCall {
		return &core.AuthError{Reason: "second consecutive session expiry; giving up"}
	}
	return nil
}

func (r *fakeRecoverer) MarkHealthy() { r.healthy++ }

func testLogger() *logging.Logger {
	return logging.NewWithWriters(io.Discard, io.Discard)
}

// TestOrchestratorRunsStepsInOrder verifies every step of every module runs
// exactly once, in declaration order.
func TestOrchestratorRunsStepsInOrder(t *testing.T) {
	var order []string
	step := func(name string) core.Step {
		return core.Step{Title: name, Run: func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	modules := []core.VectorModule{
		&fakeModule{
			vector: core.VectorReflected,
			steps:  []core.Step{step("r1"), step("r2")},
			report: &core.VectorReport{Vector: core.VectorReflected},
		},
		&fakeModule{
			vector: core.VectorStored,
			steps:  []core.Step{step("s1")},
			report: &core.VectorReport{Vector: core.VectorStored},
		},
	}

	o := core.NewOrchestrator(modules, core.AutoApprove, nil, testLogger())
	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, []string{"r1", "r2", "s1"}, order)
	assert.Len(t, o.Summary().Reports, 2)
}

// TestOrchestratorSkipsDeclinedSteps verifies a declined prompt skips the
// step without failing the run, and that un-prompted steps never ask.
func TestOrchestratorSkipsDeclinedSteps(t *testing.T) {
	var ran []string
	record := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			ran = append(ran, name)
			return nil
		}
	}

	module := &fakeModule{
		vector: core.VectorReflected,
		steps: []core.Step{
			{Title: "gated", Prompt: "do it?", Run: record("gated")},
			{Title: "ungated", Run: record("ungated")},
		},
		report: &core.VectorReport{Vector: core.VectorReflected},
	}

	var prompts []string
	decline := func(prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	}

	o := core.NewOrchestrator([]core.VectorModule{module}, decline, nil, testLogger())
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, []string{"ungated"}, ran)
	assert.Equal(t, []string{"do it?"}, prompts)
}

// TestOrchestratorRecoversAndRetriesOnce verifies that a step reporting an
// expired session triggers one recovery and one retry of that same step.
func TestOrchestratorRecoversAndRetriesOnce(t *testing.T) {
	calls := 0
	module := &fakeModule{
		vector: core.VectorReflected,
		steps: []core.Step{{
			Title: "flaky",
			Run: func(ctx context.Context) error {
				calls++
				if calls == 1 {
					return core.ErrSessionExpired
				}
				return nil
			},
		}},
		report: &core.VectorReport{Vector: core.VectorReflected},
	}

	recoverer := &fakeRecoverer{}
	o := core.NewOrchestrator([]core.VectorModule{module}, core.AutoApprove, recoverer, testLogger())
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 2, calls, "step must be retried exactly once")
	assert.Equal(t, 1, recoverer.recoveries)
	assert.Equal(t, 1, recoverer.healthy, "healthy mark after the step completes")
}

// TestOrchestratorFailsOnSecondExpiry verifies a step that keeps expiring
// surfaces the recoverer's auth error instead of looping.
func TestOrchestratorFailsOnSecondExpiry(t *testing.T) {
	module := &fakeModule{
		vector: core.VectorStored,
		steps: []core.Step{{
			Title: "always expired",
			Run: func(ctx context.Context) error {
				return core.ErrSessionExpired
			},
		}},
		report: &core.VectorReport{Vector: core.VectorStored},
	}

	recoverer := &fakeRecoverer{failAtCall: 2}
	o := core.NewOrchestrator([]core.VectorModule{module}, core.AutoApprove, recoverer, testLogger())

	err := o.Run(context.Background())
	var authErr *core.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 2, recoverer.recoveries)
	// The aborted module's report is still aggregated.
	assert.Len(t, o.Summary().Reports, 1)
}

// TestOrchestratorAbortsOnStepError verifies an unexpected step error aborts
// the run but keeps the partial report.
func TestOrchestratorAbortsOnStepError(t *testing.T) {
	boom := errors.New("boom")
	module := &fakeModule{
		vector: core.VectorDOM,
		steps: []core.Step{{
			Title: "broken",
			Run:   func(ctx context.Context) error { return boom },
		}},
		report: &core.VectorReport{Vector: core.VectorDOM},
	}

	o := core.NewOrchestrator([]core.VectorModule{module}, core.AutoApprove, nil, testLogger())
	err := o.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Len(t, o.Summary().Reports, 1)
}

// TestOrchestratorHonorsContextCancellation verifies cancellation stops the
// walkthrough between steps.
func TestOrchestratorHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ran := 0
	module := &fakeModule{
		vector: core.VectorReflected,
		steps: []core.Step{
			{Title: "first", Run: func(ctx context.Context) error {
				ran++
				cancel()
				return nil
			}},
			{Title: "second", Run: func(ctx context.Context) error {
				ran++
				return nil
			}},
		},
		report: &core.VectorReport{Vector: core.VectorReflected},
	}

	o := core.NewOrchestrator([]core.VectorModule{module}, core.AutoApprove, nil, testLogger())
	err := o.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ran)
}
