package main

import (
	"github.com/spf13/cobra"
)

var statsScenario string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show accumulated knowledge for a scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg.Logging)

		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(cmd.Context(), statsScenario)
		if err != nil {
			return err
		}

		cmd.Printf("scenario:     %s\n", statsScenario)
		cmd.Printf("missions:     %d\n", stats.Total)
		cmd.Printf("successes:    %d\n", stats.Successes)
		cmd.Printf("failures:     %d\n", stats.Failures)
		cmd.Printf("success rate: %.1f%%\n", stats.SuccessRate*100)
		if stats.Successes > 0 {
			cmd.Printf("avg time:     %.1fs\n", stats.AvgTime)
			cmd.Printf("min time:     %.1fs\n", stats.MinTime)
			cmd.Printf("max time:     %.1fs\n", stats.MaxTime)
		}
		if stats.Best != nil {
			cmd.Printf("best path:    %s, %d ticks, danger %.2f\n",
				stats.Best.AgentID, stats.Best.Ticks, stats.Best.Danger)
		}
		return nil
	},
}

var clearScenario string

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete accumulated knowledge for a scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg.Logging)

		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(cmd.Context(), clearScenario); err != nil {
			return err
		}
		cmd.Printf("cleared knowledge for scenario %q\n", clearScenario)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsScenario, "scenario", "s", "fire", "scenario to report on")
	clearCmd.Flags().StringVarP(&clearScenario, "scenario", "s", "fire", "scenario to clear")
}
