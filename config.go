package gate

import "time"

// Config holds engine tuning knobs. Zero values are replaced by
// DefaultConfig values at construction.
type Config struct {
	// MaxChainDepth bounds ownership-chain resolution. Declared chains
	// are at most two hops; the bound guards against misdeclared chains.
	MaxChainDepth int `json:"max_chain_depth"`

	// CacheTTL is the lifetime of cached decisions when a cache is
	// configured.
	CacheTTL time.Duration `json:"cache_ttl"`

	// AuditEnabled controls whether decisions are recorded to the audit
	// log store when one is configured.
	AuditEnabled bool `json:"audit_enabled"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxChainDepth: 4,
		CacheTTL:      time.Minute,
		AuditEnabled:  true,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxChainDepth <= 0 {
		c.MaxChainDepth = def.MaxChainDepth
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	return c
}
