package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhalloran/voicearch/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the global configuration file",
	Long: `Config reads and writes ~/.config/va/config.yml, which holds service
credentials used when the corresponding environment variables are not
set. Valid keys: deepgram_api_key, cohere_api_key, pinecone_api_key,
pinecone_index_host, ledger_path.`,
}

// ConfigValueResponse is the response for config get.
type ConfigValueResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConfigUpdateResponse is the response for config set.
type ConfigUpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}

		value, ok := configValue(cfg, args[0])
		if !ok {
			exitWithError(ExitDataError, "unknown config key: %s", args[0])
		}

		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(ConfigValueResponse{Key: args[0], Value: value})
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}

		if !setConfigValue(cfg, args[0], args[1]) {
			exitWithError(ExitDataError, "unknown config key: %s", args[0])
		}

		if err := config.SaveGlobalConfig(cfg); err != nil {
			exitWithError(ExitError, "%v", err)
		}

		if humanOutput {
			fmt.Printf("set %s\n", args[0])
		} else {
			outputJSON(ConfigUpdateResponse{Status: "updated", Key: args[0]})
		}
		return nil
	},
}

func configValue(cfg *config.GlobalConfig, key string) (string, bool) {
	switch key {
	case "deepgram_api_key":
		return cfg.DeepgramAPIKey, true
	case "cohere_api_key":
		return cfg.CohereAPIKey, true
	case "pinecone_api_key":
		return cfg.PineconeAPIKey, true
	case "pinecone_index_host":
		return cfg.PineconeIndexHost, true
	case "ledger_path":
		return cfg.LedgerPath, true
	}
	return "", false
}

func setConfigValue(cfg *config.GlobalConfig, key, value string) bool {
	switch key {
	case "deepgram_api_key":
		cfg.DeepgramAPIKey = value
	case "cohere_api_key":
		cfg.CohereAPIKey = value
	case "pinecone_api_key":
		cfg.PineconeAPIKey = value
	case "pinecone_index_host":
		cfg.PineconeIndexHost = value
	case "ledger_path":
		cfg.LedgerPath = value
	default:
		return false
	}
	return true
}
