package extension

// Config holds the gate extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.gate" or "gate" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// MaxChainDepth controls the maximum depth for ownership-chain
	// resolution.
	MaxChainDepth int `json:"max_chain_depth" mapstructure:"max_chain_depth" yaml:"max_chain_depth"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChainDepth: 4,
	}
}
