/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: run.go
Description: Run command implementation for HackBench. Wires the validator,
session manager, replay recorder, instrumented client, and vector modules
together and drives the guided walkthrough from pre-flight to summary.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/hackbench/pkg/analysis"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/execution"
	"github.com/kleascm/hackbench/pkg/logging"
	"github.com/kleascm/hackbench/pkg/reporting"
	"github.com/kleascm/hackbench/pkg/strategies"
	"github.com/kleascm/hackbench/pkg/utils"
	"github.com/kleascm/hackbench/pkg/web"
)

// RunWalkthrough executes the guided walkthrough end to end.
func RunWalkthrough(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	config := buildRunConfig()
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !viper.GetBool("skip_banner") {
		fmt.Print(reporting.Banner)
		fmt.Println(reporting.Tagline())
	}
	fmt.Println(reporting.LegalWarning)

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	replay, err := utils.NewReplayWriter(config.LogDir, config.ProxyAddr)
	if err != nil {
		return fmt.Errorf("failed to create replay file: %w", err)
	}
	defer replay.Close()

	client, err := execution.NewClient(replay, logger, config.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	// Graceful shutdown on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived shutdown signal, stopping walkthrough...")
		cancel()
	}()

	target := buildTarget()
	session, err := preflight(ctx, config, target, client, logger)
	if err != nil {
		return err
	}

	approve := approvalFor(config)
	modules, err := buildModules(config, target, client, session, logger, approve)
	if err != nil {
		return err
	}

	orchestrator := core.NewOrchestrator(modules, approve, session, logger)
	if err := orchestrator.Run(ctx); err != nil {
		return fmt.Errorf("walkthrough aborted: %w", err)
	}

	summaryText := reporting.RenderSummary(orchestrator.Summary(), reporting.ArtifactPaths{
		OperationalLog: logger.OperationalPath(),
		NarrativeLog:   logger.NarrativePath(),
		ReplayFile:     replay.Path(),
	})
	logger.Section("Summary")
	logger.Narrative(summaryText)
	logger.Info("Walkthrough completed", map[string]interface{}{
		"requests_recorded": replay.Count(),
		"vectors":           len(modules),
	})
	return nil
}

// preflight validates the target, authenticates, and pins the security level.
// Any failure here is fatal; no payload has been dispatched yet.
func preflight(ctx context.Context, config *core.RunConfig, target *core.Target, client *execution.Client, logger *logging.Logger) (*web.SessionManager, error) {
	logger.Section("Pre-flight")

	validator := web.NewValidator(client, logger)
	if err := validator.Validate(ctx, target, config.ConfirmTarget); err != nil {
		return nil, err
	}

	session := web.NewSessionManager(target, client, logger)
	if err := session.Login(ctx, config.Username, config.Password); err != nil {
		return nil, err
	}

	if config.SecurityLevel != "" {
		level := core.SecurityLevel(config.SecurityLevel)
		if err := session.SetSecurityLevel(ctx, level); err != nil {
			return nil, err
		}
		logger.Narrative(fmt.Sprintf("[+] Security level pinned to %q", level))
	}
	return session, nil
}

// buildModules assembles the vector modules for the configured mode in the
// fixed reflected, stored, dom order.
func buildModules(config *core.RunConfig, target *core.Target, client *execution.Client, session *web.SessionManager, logger *logging.Logger, approve core.ApprovalFunc) ([]core.VectorModule, error) {
	classifier := analysis.NewClassifier(analysis.DefaultPolicy())
	injector := strategies.NewInjector(classifier, logger)

	// Manual browser confirmation for DOM only makes sense interactively.
	var confirm core.ApprovalFunc
	if config.Interactive {
		confirm = approve
	}

	var modules []core.VectorModule
	for _, vector := range config.Vectors() {
		switch vector {
		case core.VectorReflected:
			modules = append(modules, strategies.NewReflectedModule(target, client, injector, logger))
		case core.VectorStored:
			modules = append(modules, strategies.NewStoredModule(target, client, session, injector, logger))
		case core.VectorDOM:
			modules = append(modules, strategies.NewDOMModule(target, client, injector, logger, confirm))
		default:
			return nil, fmt.Errorf("unknown vector: %s", vector)
		}
	}
	return modules, nil
}
