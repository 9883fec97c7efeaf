package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/infrastructure/config"
)

// HealthStatus mirrors the daemon's health endpoint payload
type HealthStatus struct {
	Status  string `json:"status"`
	Project string `json:"project"`
	Pages   int    `json:"pages"`
	Uptime  string `json:"uptime"`
}

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check daemon health status",
		Long:  `Verify that the watch daemon is running and responsive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			url := fmt.Sprintf("http://%s/healthz", cfg.Daemon.Address)
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("failed to reach daemon at %s: %w", url, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("daemon reported status %d", resp.StatusCode)
			}

			var health HealthStatus
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				return fmt.Errorf("failed to decode health response: %w", err)
			}

			fmt.Println("✓ Daemon is healthy")
			fmt.Printf("  Status:  %s\n", health.Status)
			fmt.Printf("  Project: %s\n", health.Project)
			fmt.Printf("  Pages:   %d\n", health.Pages)
			fmt.Printf("  Uptime:  %s\n", health.Uptime)

			return nil
		},
	}

	return cmd
}
