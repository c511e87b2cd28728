package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rvadriving/scheduler/app"
	"github.com/rvadriving/scheduler/config"
	"github.com/rvadriving/scheduler/core/availability"
	"github.com/rvadriving/scheduler/infra/store"
)

var dayDate string

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Print the expanded availability for one date from a seed file",
	RunE:  runDay,
}

func init() {
	dayCmd.Flags().StringVar(&dayDate, "date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
	rootCmd.AddCommand(dayCmd)
}

func runDay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Seed.Path == "" {
		return fmt.Errorf("no seed path configured")
	}
	st := store.NewMemoryStore()
	if err := app.LoadSeed(st, cfg.Seed.Path); err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	date, err := time.ParseInLocation("2006-01-02", dayDate, time.Local)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	out := struct {
		Date         string `json:"date"`
		Availability any    `json:"availability"`
		Blocked      any    `json:"blocked"`
	}{
		Date:         dayDate,
		Availability: availability.ExpandDay(st.Availability(), date),
		Blocked:      availability.BlockedOn(st.Availability(), date),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
