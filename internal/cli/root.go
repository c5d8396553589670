// Package cli implements the fennec terminal commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/fennec-ai/fennec/pkg/assistant"
)

var (
	configPath string
	envPath    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "fennec",
	Short: "Personal assistant with memory and personality",
	Long:  "Fennec is a personal chat assistant. It remembers past conversations, learns who it talks to, can be taught canned replies, and reaches for the web when a question needs live information.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file (default: environment variables)")
	RootCmd.PersistentFlags().StringVarP(&envPath, "env", "e", "", ".env file to load")

	RootCmd.AddCommand(chatCmd)
	RootCmd.AddCommand(usersCmd)
	RootCmd.AddCommand(teachCmd)
}

func loadConfig() (*assistant.Config, error) {
	if configPath != "" {
		return assistant.LoadConfigFromJSON(configPath)
	}
	if envPath != "" {
		return assistant.LoadConfigFromEnvFile(envPath)
	}
	return assistant.LoadConfigFromEnv()
}

func openAssistant() (*assistant.Assistant, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return assistant.New(cfg)
}
