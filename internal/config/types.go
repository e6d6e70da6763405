package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level machivoice configuration, corresponding to
// .machivoice.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	ModelRPM          int          `yaml:"model_rpm" koanf:"model_rpm"`
	Port              int          `yaml:"port" koanf:"port"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	PolicyFile        string       `yaml:"policy_file" koanf:"policy_file"`
	GeocoderURL       string       `yaml:"geocoder_url" koanf:"geocoder_url"`
	GeocoderUserAgent string       `yaml:"geocoder_user_agent" koanf:"geocoder_user_agent"`
	LogLevel          string       `yaml:"log_level" koanf:"log_level"`
	LogPretty         bool         `yaml:"log_pretty" koanf:"log_pretty"`
	CORSAllowAll      bool         `yaml:"cors_allow_all" koanf:"cors_allow_all"`
}
