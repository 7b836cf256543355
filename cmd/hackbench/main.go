/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for HackBench. Provides the run, check,
and payloads commands with comprehensive flag handling, configuration management,
and the guided walkthrough user interface.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/hackbench/cmd/hackbench/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string

	// Target configuration
	host          string
	port          int
	https         bool
	basePath      string
	confirmTarget bool

	// Session configuration
	username      string
	password      string
	securityLevel string

	// Run configuration
	mode          string
	noInteractive bool
	skipBanner    bool
	timeout       time.Duration
	proxyAddr     string

	// Logging configuration
	logDir   string
	noColors bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hackbench",
		Short: "HackBench - Guided XSS walkthrough and exploit verification engine",
		Long: `HackBench walks an operator through authenticated XSS attacks against a
deliberately vulnerable DVWA lab instance. Every payload is dispatched over real
HTTP, every outcome is verified against the actual response, and every request
is recorded to a replay file so the session can be reproduced by hand.`,
		Version: "1.0.0",
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "./logs", "Directory for log and replay files")
	rootCmd.PersistentFlags().BoolVar(&noColors, "no-colors", false, "Disable ANSI colors in narrative output")

	rootCmd.PersistentFlags().StringVar(&host, "host", "localhost", "Target host")
	rootCmd.PersistentFlags().IntVar(&port, "port", 80, "Target port")
	rootCmd.PersistentFlags().BoolVar(&https, "https", false, "Use HTTPS for target requests")
	rootCmd.PersistentFlags().StringVar(&basePath, "base-path", "", "Base path when the target lives under a subdirectory (e.g. /dvwa)")
	rootCmd.PersistentFlags().BoolVar(&confirmTarget, "confirm-target", false, "Confirm authorization for a non-local target")

	rootCmd.PersistentFlags().StringVar(&username, "username", "admin", "Login username")
	rootCmd.PersistentFlags().StringVar(&password, "password", "password", "Login password")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP request timeout")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("no_colors", rootCmd.PersistentFlags().Lookup("no-colors"))
	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("https", rootCmd.PersistentFlags().Lookup("https"))
	viper.BindPFlag("base_path", rootCmd.PersistentFlags().Lookup("base-path"))
	viper.BindPFlag("confirm_target", rootCmd.PersistentFlags().Lookup("confirm-target"))
	viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))
	viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	// Add run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the guided XSS walkthrough against the target",
		Long: `Run the full walkthrough: validate the target, authenticate, pin the security
level, then work through the selected vectors payload by payload. In interactive
mode every step waits for operator approval.`,
		RunE: commands.RunWalkthrough,
	}

	runCmd.Flags().StringVar(&mode, "mode", "all", "Vector to exercise (reflected, stored, dom, all)")
	runCmd.Flags().StringVar(&securityLevel, "security-level", "low", "Security level to pin (low, medium, high, impossible)")
	runCmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Approve every step without prompting")
	runCmd.Flags().BoolVar(&skipBanner, "skip-banner", false, "Skip the startup banner")
	runCmd.Flags().StringVar(&proxyAddr, "proxy", "", "Proxy address for replay curl commands (default http://127.0.0.1:8080)")

	viper.BindPFlag("mode", runCmd.Flags().Lookup("mode"))
	viper.BindPFlag("security_level", runCmd.Flags().Lookup("security-level"))
	viper.BindPFlag("no_interactive", runCmd.Flags().Lookup("no-interactive"))
	viper.BindPFlag("skip_banner", runCmd.Flags().Lookup("skip-banner"))
	viper.BindPFlag("proxy_addr", runCmd.Flags().Lookup("proxy"))

	rootCmd.AddCommand(runCmd)

	// Add check command for target and credential validation
	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the target and credentials without dispatching payloads",
		Long: `Perform the pre-flight sequence only: authorization check, reachability probe,
fingerprint verification, login, and security level detection. No attack payload
is ever sent. Useful for verifying a lab before a session.`,
		RunE: commands.RunCheck,
	})

	// Add payloads command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "payloads",
		Short: "List the payload variants each vector escalates through",
		Long: `List every payload variant in the catalog, grouped by vector, with the
explanation the walkthrough gives when dispatching it. Nothing is sent.`,
		RunE: commands.ListPayloads,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
