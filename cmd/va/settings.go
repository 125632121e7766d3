package main

import (
	"github.com/joho/godotenv"

	"github.com/mhalloran/voicearch/internal/apierr"
	"github.com/mhalloran/voicearch/internal/config"
	"github.com/mhalloran/voicearch/internal/embedding"
	"github.com/mhalloran/voicearch/internal/pinecone"
)

// loadSettings loads .env plus the environment into Settings, exiting on
// invalid configuration.
func loadSettings() *config.Settings {
	_ = godotenv.Load()

	settings, err := config.FromEnv()
	if err != nil {
		if apierr.IsValidation(err) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitError, "loading configuration: %v", err)
	}
	return settings
}

// requireKey exits with a configuration error when a credential is missing.
func requireKey(value, name string) {
	if value == "" {
		exitWithError(ExitConfigError, "%s is not set (export it, add it to .env, or run 'va config set %s <value>')", name, configKeyFor(name))
	}
}

func configKeyFor(envName string) string {
	switch envName {
	case "DEEPGRAM_API_KEY":
		return "deepgram_api_key"
	case "COHERE_API_KEY":
		return "cohere_api_key"
	case "PINECONE_API_KEY":
		return "pinecone_api_key"
	case "PINECONE_INDEX_HOST":
		return "pinecone_index_host"
	}
	return envName
}

// vectorStore builds the Pinecone client from settings, exiting when the
// credentials are missing or the host is malformed.
func vectorStore(settings *config.Settings) *pinecone.Client {
	requireKey(settings.PineconeAPIKey, "PINECONE_API_KEY")
	requireKey(settings.PineconeIndexHost, "PINECONE_INDEX_HOST")

	store, err := pinecone.NewClient(settings.PineconeAPIKey, settings.PineconeIndexHost)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return store
}

// embedder builds the Cohere provider from settings.
func embedder(settings *config.Settings) embedding.Provider {
	requireKey(settings.CohereAPIKey, "COHERE_API_KEY")
	return embedding.NewCohereProvider(settings.CohereAPIKey)
}
