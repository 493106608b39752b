package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that Qdrant and the model providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return notConfigured("health")
	}

	report := healthService.Check(cmd.Context())

	if statusJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Println(heading("Services"))
		for _, s := range report.Services {
			line := fmt.Sprintf("  %-10s %-5s %s", s.Name, statusMark(s.Running), s.URL)
			if s.Version != "" {
				line += " " + muted("v"+s.Version)
			}
			cmd.Println(line)
			if s.Error != "" {
				cmd.Printf("             %s\n", s.Error)
			}
		}
	}

	if !report.Healthy() {
		return fmt.Errorf("one or more services are unreachable")
	}
	return nil
}
