package config

// defaultModels maps each provider to its default chat model.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             defaultModels[ProviderOpenAI],
		ModelRPM:          0,
		Port:              8080,
		DataDir:           ".machivoice",
		GeocoderURL:       "https://nominatim.openstreetmap.org",
		GeocoderUserAgent: "machivoice/1.0",
		LogLevel:          "info",
		LogPretty:         false,
		CORSAllowAll:      false,
	}
}

// DefaultModel returns the default chat model for the given provider.
// Falls back to the OpenAI default for unknown providers.
func DefaultModel(provider ProviderType) string {
	if model, ok := defaultModels[provider]; ok {
		return model
	}
	return defaultModels[ProviderOpenAI]
}
