package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/mdouchement/grovepwmd"
	"github.com/mdouchement/grovepwmd/cmd/grovepwmctl/monitor"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"
)

func main() {
	client := new(grovepwmd.Client)

	cmd := &cobra.Command{
		Use:     "grovepwmctl",
		Short:   "A ctl use to interact with grovepwmd",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsSocket(cmd) {
				return nil
			}

			socket, err := findSocket()
			if err != nil {
				return err
			}

			*client = *grovepwmd.NewClient(socket)
			return nil
		},
	}
	cmd.AddCommand(monitor.Command(client))
	cmd.AddCommand(&cobra.Command{
		Use:                "speed SPEED_1 SPEED_2",
		Short:              "Set the speed of both motors, from -1 to +1",
		Args:               cobra.ExactArgs(2),
		DisableFlagParsing: true, // Negative speeds are not flags.
		RunE: func(c *cobra.Command, args []string) error {
			speed1, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("speed_1: %w", err)
			}
			speed2, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("speed_2: %w", err)
			}

			return show(client.SetSpeed(c.Context(), speed1, speed2))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "frequency FREQUENCY",
		Short: "Set the PWM frequency (31372Hz, 3921Hz, 490Hz, 122Hz or 30Hz)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return show(client.SetFrequency(c.Context(), args[0]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop both motors",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return show(client.Stop(c.Context()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Show the last command sent to the board",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return show(client.State(c.Context()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for grovepwmctl",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// needsSocket reports whether cmd talks to grovepwmd.
func needsSocket(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

func show(state grovepwmd.State, err error) error {
	if err != nil {
		return err
	}

	p, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(p))
	return nil
}

//
//
//

type config struct {
	Socket string `yaml:"socket"`
}

func findSocket() (string, error) {
	if _, err := os.Stat(grovepwmd.DefaultSocket); err == nil {
		return grovepwmd.DefaultSocket, nil
	}

	u, err := user.Current()
	if err != nil {
		return "", err
	}

	var cfg config
	cpath := filepath.Join(u.HomeDir, ".config", "grovepwmctl", "grovepwmctl.yml") // Does not follow XDG..
	if _, err := os.Stat(cpath); err == nil {
		p, err := os.ReadFile(cpath)
		if err != nil {
			return "", err
		}

		err = yaml.Unmarshal(p, &cfg)
		if err != nil {
			return "", err
		}

		if _, err = os.Stat(cfg.Socket); err == nil {
			return cfg.Socket, nil
		}

		fmt.Println("Invalid socket path:", cfg.Socket)
	}

	fmt.Print("Enter a socket path: ")
	r := bufio.NewReader(os.Stdin)
	socket, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}

	socket = strings.TrimSpace(socket)

	if err = os.MkdirAll(filepath.Dir(cpath), 0o755); err != nil {
		return "", err
	}

	cfg.Socket = socket
	p, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	return socket, os.WriteFile(cpath, p, 0o600)
}
