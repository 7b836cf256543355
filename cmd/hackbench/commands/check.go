/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: Check command implementation for HackBench. Runs the pre-flight
sequence only: authorization, reachability, fingerprint, login, and security
level detection. No attack payload is dispatched.
*/

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kleascm/hackbench/pkg/execution"
	"github.com/kleascm/hackbench/pkg/utils"
	"github.com/kleascm/hackbench/pkg/web"
)

// RunCheck validates target and credentials without attacking anything.
func RunCheck(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	config := buildRunConfig()
	config.Mode = "all" // check is vector-independent
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

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

	ctx := context.Background()
	target := buildTarget()

	logger.Section("Target check")

	validator := web.NewValidator(client, logger)
	if err := validator.Validate(ctx, target, config.ConfirmTarget); err != nil {
		return err
	}
	logger.Narrative("[+] Target validated: " + target.BaseURL())
	if target.Version != "" {
		logger.Narrative("[+] Detected version: " + target.Version)
	}

	session := web.NewSessionManager(target, client, logger)
	if err := session.Login(ctx, config.Username, config.Password); err != nil {
		return err
	}
	logger.Narrative("[+] Login succeeded as " + config.Username)

	level, err := session.DetectSecurityLevel(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect security level: %w", err)
	}
	logger.Narrative(fmt.Sprintf("[+] Current security level: %s", level))

	logger.Narrative("\nAll checks passed. The target is ready for a walkthrough run.")
	return nil
}
