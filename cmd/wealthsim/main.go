package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wealthsim/wealthsim/internal/config"
	"github.com/wealthsim/wealthsim/internal/domain"
	"github.com/wealthsim/wealthsim/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "wealthsim",
	Short: "Financial projection calculation engine",
	Long:  "Compound-growth projections, FIRE targets, debt payoff strategies, Monte Carlo and stress-tested outcomes",
}

var calcCmd = &cobra.Command{
	Use:   "calc [request-file]",
	Short: "Run one calculation request from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read request file %s: %w", args[0], err)
		}
		var req domain.CalculationRequest
		if err := yaml.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("failed to parse request file %s: %w", args[0], err)
		}
		if req.CallerID == "" {
			req.CallerID = "cli"
		}

		result, err := svc.Calculate(context.Background(), &req)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List available stress-test scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		for _, name := range svc.Scenarios().Names() {
			s, _ := svc.Scenarios().Get(name)
			fmt.Fprintf(os.Stdout, "%-18s %s\n", name, s.Description)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [request-file...]",
	Short: "Run requests as a batch and print service stats",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		reqs := make([]*domain.CalculationRequest, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read request file %s: %w", path, err)
			}
			var req domain.CalculationRequest
			if err := yaml.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse request file %s: %w", path, err)
			}
			if req.CallerID == "" {
				req.CallerID = "cli"
			}
			reqs = append(reqs, &req)
		}

		items := svc.CalculateBatch(context.Background(), reqs, 0)
		for _, item := range items {
			if item.Err != nil {
				fmt.Fprintf(os.Stderr, "request %d failed: %v\n", item.Index, item.Err)
				continue
			}
			if err := printJSON(item.Result); err != nil {
				return err
			}
		}
		return printJSON(svc.Stats())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "wealthsim %s (commit %s, built %s)\n", version, commit, date)
		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			fmt.Fprintln(os.Stdout, bi.Main.Version)
		}
	},
}

func newService() (*service.Service, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return service.New(cfg, service.WithLogger(logger))
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "engine configuration file (YAML)")
	rootCmd.AddCommand(calcCmd, scenariosCmd, statsCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
