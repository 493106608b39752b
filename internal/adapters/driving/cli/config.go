package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	initConfigPath  string
	initConfigForce bool
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default config file",
	Long: `Writes config.toml with every setting at its default value.

An existing file is kept unless --force is given; it is then copied to
config.toml.bak-YYYYMMDD-HHMM before being replaced.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStandalone: "true"},
	RunE:        runInitConfig,
}

func init() {
	initConfigCmd.Flags().StringVar(&initConfigPath, "path", "", "where to write the file (default: --config or ~/.mnemolet/config.toml)")
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "overwrite an existing file after backing it up")
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, _ []string) error {
	path := initConfigPath
	if path == "" {
		path = configPath
	}

	svc := settingsService
	if openSettings != nil {
		opened, err := openSettings(path)
		if err != nil {
			return fmt.Errorf("failed to open config: %w", err)
		}
		svc = opened
	}
	if svc == nil {
		return errors.New("settings service not configured")
	}

	backup, err := svc.WriteDefaultConfig(initConfigForce)
	if err != nil {
		return err
	}
	if backup != "" {
		cmd.Printf("Previous config saved to %s\n", backup)
	}
	if path == "" {
		path = "~/.mnemolet/config.toml"
	}
	cmd.Printf("Default config written to %s\n", path)
	return nil
}
