package monitor

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mdouchement/grovepwmd"
	"github.com/spf13/cobra"
)

func Command(client *grovepwmd.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Start the TUI monitor display",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			events, body, err := client.Monitor(c.Context())
			if err != nil {
				return err
			}
			defer body.Close()

			m := newTUI()
			tui := tea.NewProgram(m, tea.WithAltScreen())

			go func() {
				for {
					event, err := events.Next()
					if err != nil {
						tui.Quit()
						fmt.Println("ERR:", err)
						os.Exit(1)
					}
					if len(event) == 0 {
						continue
					}

					var state grovepwmd.State
					err = json.Unmarshal(event, &state)
					if err != nil {
						tui.Quit()
						fmt.Println("ERR:", err)
						os.Exit(1)
					}

					tui.Send(state)
				}
			}()

			_, err = tui.Run()
			return err
		},
	}
}
