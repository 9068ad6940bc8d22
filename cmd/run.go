// cmd/run.go
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carpoolsim/carpoolsim/sim"
	"github.com/carpoolsim/carpoolsim/sim/mapclient"
	"github.com/carpoolsim/carpoolsim/sim/matching"
	"github.com/carpoolsim/carpoolsim/sim/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a carpool-sim configuration",
	RunE:  runRun,
}

func init() {
	flags := runCmd.Flags()
	flags.String("config", "config.yaml", "Path to the YAML configuration file")
	flags.String("policy", "", "Override policy.policy from the config (fcfs, optimal, dual)")
	flags.Int64("seed", 0, "Override simulation.random_seed from the config")
	flags.Float64("duration", 0, "Override simulation.duration (seconds) from the config")
	flags.String("osrm", "http://127.0.0.1:5000", "OSRM-compatible routing server base URL")
	flags.String("redis", "", "Optional shared Redis cache address (host:port), empty disables it")
	flags.Bool("verbose", false, "Print the full metrics snapshot instead of a one-line summary")

	// viper merges these flags with CARPOOLSIM_-prefixed environment
	// variables, grounded on shivamshaw23-Hintro's config.Load.
	viper.SetEnvPrefix("carpoolsim")
	viper.AutomaticEnv()
	for _, name := range []string{"config", "policy", "seed", "duration", "osrm", "redis", "verbose"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			logrus.Fatalf("binding --%s: %v", name, err)
		}
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	setLogLevel()

	cfg, err := sim.LoadConfig(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyOverrides(cmd, cfg)

	oracle := buildOracle()

	policy := cfg.Policy.Policy
	if policy == "" {
		policy = "dual"
	}

	logrus.Infof("starting carpool-sim: policy=%s seed=%d duration=%.0fs capacity=%d",
		policy, cfg.Simulation.RandomSeed, cfg.Simulation.DurationSec, cfg.Carpooling.Capacity)

	if policy == "dual" {
		result := runner.RunDual(cfg, oracle)
		printSnapshot("fcfs", result.FCFS, viper.GetBool("verbose"))
		printSnapshot("optimal", result.Optimal, viper.GetBool("verbose"))
		if cfg.Metrics.OutputFile != "" {
			return writeMetricsFile(cfg.Metrics.OutputFile, map[string]sim.Snapshot{
				"fcfs": result.FCFS, "optimal": result.Optimal,
			})
		}
		return nil
	}

	if !matching.IsValidMatcher(policy) {
		return fmt.Errorf("policy %q is not one of %v, dual", policy, matching.ValidMatcherNames())
	}
	snap := runner.RunSingle(cfg, oracle, policy)
	printSnapshot(policy, snap, viper.GetBool("verbose"))
	if cfg.Metrics.OutputFile != "" {
		return writeMetricsFile(cfg.Metrics.OutputFile, map[string]sim.Snapshot{policy: snap})
	}
	return nil
}

// applyOverrides layers explicitly-set --seed/--policy/--duration flags
// (or their CARPOOLSIM_ env equivalents) on top of the loaded config,
// leaving the config file's values untouched otherwise.
func applyOverrides(cmd *cobra.Command, cfg *sim.Config) {
	if cmd.Flags().Changed("seed") || os.Getenv("CARPOOLSIM_SEED") != "" {
		cfg.Simulation.RandomSeed = viper.GetInt64("seed")
	}
	if cmd.Flags().Changed("duration") || os.Getenv("CARPOOLSIM_DURATION") != "" {
		cfg.Simulation.DurationSec = viper.GetFloat64("duration")
	}
	if cmd.Flags().Changed("policy") || os.Getenv("CARPOOLSIM_POLICY") != "" {
		cfg.Policy.Policy = viper.GetString("policy")
	}
}

// buildOracle constructs the shared sim.MapOracle used by both kernels
// of a Dual Driver run (see mapclient's doc comment on why one Client
// instance is reused across both).
func buildOracle() sim.MapOracle {
	opts := []mapclient.Option{}
	if addr := viper.GetString("redis"); addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		opts = append(opts, mapclient.WithRedis(ctx, mapclient.RedisOptions{Addr: addr, TTL: 10 * time.Minute}))
	}
	return mapclient.New(viper.GetString("osrm"), opts...)
}

func printSnapshot(label string, snap sim.Snapshot, verbose bool) {
	if verbose {
		raw, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Printf("=== %s ===\n%s\n", label, raw)
		return
	}
	fmt.Printf("%-8s requests=%-5d matches=%-5d quits=%-4d match_rate=%.2f avg_wait=%.1fs p50_wait=%.1fs p95_wait=%.1fs avg_detour=%.2f avg_pool=%.2f total_cost=%.2f\n",
		label, snap.Cumulative.TotalRequests, snap.Cumulative.TotalMatches, snap.Cumulative.TotalQuits,
		snap.Cumulative.MatchRate, snap.Cumulative.AvgWaitingTime, snap.Cumulative.P50WaitingTime, snap.Cumulative.P95WaitingTime,
		snap.Cumulative.AvgDetourRatio, snap.Carpooling.AvgPoolSize, snap.Cumulative.TotalCost)
}

func writeMetricsFile(path string, snapshots map[string]sim.Snapshot) error {
	raw, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics export: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing metrics export to %s: %w", path, err)
	}
	logrus.Infof("wrote metrics export to %s", path)
	return nil
}
