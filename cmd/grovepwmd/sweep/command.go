package sweep

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdouchement/grovepwmd"
	"github.com/mdouchement/logger"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var cpath string
	var dummy bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Cycle both motors from -1 to +1 speed in a sine wave",
		Long: "Cycle both motors from -1 to +1 speed in a sine wave.\n" +
			"The bus must not be used by a running grovepwmd.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := grovepwmd.Load(cpath)
			if err != nil {
				return err
			}

			log := grovepwmd.NewLogger(os.Stdout, cfg.Debug)
			ctx := logger.WithLogger(context.Background(), log)
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			driver, err := grovepwmd.OpenDriver(cfg, dummy, log)
			if err != nil {
				return err
			}
			defer func() {
				// Close sends a last stop right after the one of Sweep.
				time.Sleep(cfg.Sweep.Interval.Duration)
				driver.Close()
			}()

			log.Infof("Created driver - test cycling over %s", cfg.Sweep.Duration)
			return grovepwmd.Sweep(ctx, driver, cfg.Sweep.Duration.Duration, cfg.Sweep.Interval.Duration)
		},
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", grovepwmd.DefaultConfigPath, "Configfile path")
	cmd.Flags().BoolVarP(&dummy, "dummy", "", false, "Use a dummy I2C bus")

	return cmd
}
