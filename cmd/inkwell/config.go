package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the inkwell configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		force := configForce
		if _, statErr := os.Stat(path); statErr == nil && !force {
			force = ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Config file exists",
				[]string{path, "Your edits to it will be replaced by the defaults"},
				"Overwrite it?")
			if !force {
				return nil
			}
		}
		path, err = config.CreateDefaultConfig(force)
		if err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Configuration written", ui.Param{Key: "Path", Value: path})
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(reg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration and log file locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		logPath, err := config.GetLogPath()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config: %s\nlog:    %s\n", path, logPath)
		return nil
	},
}

var configAICmd = &cobra.Command{
	Use:       "ai <on|off>",
	Short:     "Enable or disable AI assistance",
	Long:      `Enable or disable AI assistance. Turning it on also clears the "don't show again" snooze of the advisory.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
		default:
			return errors.New(`expected "on" or "off"`)
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if enabled && !reg.DontShowUntil().IsZero() {
			if err := reg.SetDontShowUntil(time.Time{}); err != nil {
				return err
			}
		}
		if err := reg.SetAIEnabled(enabled); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "AI assistance %s\n", args[0])
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file without asking")
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd, configAICmd)
	rootCmd.AddCommand(configCmd)
}
