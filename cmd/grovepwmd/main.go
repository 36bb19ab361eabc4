package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mdouchement/grovepwmd"
	showsweep "github.com/mdouchement/grovepwmd/cmd/grovepwmd/show_sweep"
	"github.com/mdouchement/grovepwmd/cmd/grovepwmd/sweep"
	"github.com/mdouchement/logger"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cpath string
	dummy bool
)

func main() {
	cmd := &cobra.Command{
		Use:     "grovepwmd",
		Short:   "A daemon driving a Grove I2C Motor Driver",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
		RunE:    daemon,
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", grovepwmd.DefaultConfigPath, "Configfile path")
	cmd.Flags().BoolVarP(&dummy, "dummy", "", false, "Start grovepwmd with a dummy I2C bus")
	cmd.AddCommand(sweep.Command())
	cmd.AddCommand(showsweep.Command())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for grovepwmd",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func daemon(_ *cobra.Command, args []string) error {
	cfg, err := grovepwmd.Load(cpath)
	if err != nil {
		return err
	}

	log := grovepwmd.NewLogger(os.Stdout, cfg.Debug)
	ctx := logger.WithLogger(context.Background(), log)

	log.Infof("grovepwmd version %s", version)

	driver, err := grovepwmd.OpenDriver(cfg, dummy, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controller, err := grovepwmd.New(cfg, driver)
	if err != nil {
		driver.Close()
		return err
	}
	controller.Launch(ctx)

	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sctx.Done()
	cancel()
	controller.Wait() // Motors are stopped.

	log.Info("Gracefully shutdown")
	return nil
}
