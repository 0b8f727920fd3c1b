package resolver

// Config holds everything the resolver would otherwise hard code, so defaults can be
// overridden from configuration and tested without a network.
type Config struct {
	// Capability is the generation method a model must support to be considered at all.
	Capability string
	// Generations are substrings identifying model generations, newest first.
	Generations []string
	HighKeyword string
	LowKeyword  string
	// Namespace replaces whatever path prefix the catalog uses, e.g. "models/".
	Namespace   string
	DefaultHigh string
	DefaultLow  string
}

func DefaultConfig() Config {
	return Config{
		Capability:  "generateContent",
		Generations: []string{"gemini-3", "gemini-2.0", "gemini-1.5"},
		HighKeyword: "pro",
		LowKeyword:  "flash",
		Namespace:   "google",
		DefaultHigh: "google/gemini-1.5-pro",
		DefaultLow:  "google/gemini-1.5-flash",
	}
}

// WithDefaults fills any empty field from DefaultConfig.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.Capability == "" {
		c.Capability = defaults.Capability
	}

	if len(c.Generations) == 0 {
		c.Generations = defaults.Generations
	}

	if c.HighKeyword == "" {
		c.HighKeyword = defaults.HighKeyword
	}

	if c.LowKeyword == "" {
		c.LowKeyword = defaults.LowKeyword
	}

	if c.Namespace == "" {
		c.Namespace = defaults.Namespace
	}

	if c.DefaultHigh == "" {
		c.DefaultHigh = defaults.DefaultHigh
	}

	if c.DefaultLow == "" {
		c.DefaultLow = defaults.DefaultLow
	}

	return c
}
