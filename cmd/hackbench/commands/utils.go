/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the HackBench commands. Provides configuration
loading, logger construction, the interactive approval prompt, and the wiring
helpers used across command implementations.
*/

package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/logging"
	"github.com/kleascm/hackbench/pkg/utils"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("HACKBENCH")
	viper.AutomaticEnv()

	return nil
}

// buildRunConfig assembles the run configuration from viper state.
func buildRunConfig() *core.RunConfig {
	proxyAddr := viper.GetString("proxy_addr")
	if proxyAddr == "" {
		proxyAddr = utils.DefaultProxyAddr
	}
	return &core.RunConfig{
		Mode:          viper.GetString("mode"),
		Host:          viper.GetString("host"),
		Port:          viper.GetInt("port"),
		HTTPS:         viper.GetBool("https"),
		Username:      viper.GetString("username"),
		Password:      viper.GetString("password"),
		SecurityLevel: viper.GetString("security_level"),
		Interactive:   !viper.GetBool("no_interactive"),
		ConfirmTarget: viper.GetBool("confirm_target"),
		LogDir:        viper.GetString("log_dir"),
		Timeout:       viper.GetDuration("timeout"),
		ProxyAddr:     proxyAddr,
	}
}

// buildTarget assembles the target description from viper state. Validation
// state starts unknown; only the validator may advance it.
func buildTarget() *core.Target {
	scheme := "http"
	if viper.GetBool("https") {
		scheme = "https"
	}
	return &core.Target{
		Scheme:   scheme,
		Host:     viper.GetString("host"),
		Port:     viper.GetInt("port"),
		BasePath: viper.GetString("base_path"),
	}
}

// newLogger builds the dual logger from viper state.
func newLogger() (*logging.Logger, error) {
	return logging.New(&logging.Config{
		Level:   logging.LogLevel(viper.GetString("log_level")),
		Format:  logging.LogFormatText,
		Dir:     viper.GetString("log_dir"),
		Console: true,
		Colors:  !viper.GetBool("no_colors"),
	})
}

// promptApproval asks the operator on stdin before each gated step. Empty
// input and anything starting with y or Y approves; n declines; q aborts the
// remaining steps of the current vector by declining everything after it.
func promptApproval(reader *bufio.Reader) core.ApprovalFunc {
	declineAll := false
	return func(prompt string) bool {
		if declineAll {
			return false
		}
		fmt.Printf("\n%s [Y/n/q] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch {
		case answer == "" || strings.HasPrefix(answer, "y"):
			return true
		case strings.HasPrefix(answer, "q"):
			declineAll = true
			return false
		default:
			return false
		}
	}
}

// approvalFor returns the step gate for the configured interactivity.
func approvalFor(config *core.RunConfig) core.ApprovalFunc {
	if !config.Interactive {
		return core.AutoApprove
	}
	return promptApproval(bufio.NewReader(os.Stdin))
}
