package provisioning

import (
	"github.com/buddyfleet/buddyops/cmd/internal/strutil"
)

const (
	ModelVariable         = "OPENCLAW_MODEL"
	StateDirVariable      = "OPENCLAW_STATE_DIR"
	WorkspaceDirVariable  = "OPENCLAW_WORKSPACE_DIR"
	GatewayHostVariable   = "INTERNAL_GATEWAY_HOST"
	GatewayPortVariable   = "INTERNAL_GATEWAY_PORT"
	ChannelTokenVariable  = "TELEGRAM_BOT_TOKEN"
	CatalogApiKeyVariable = "GEMINI_API_KEY"
)

// Config holds the fixed values written into every new buddy. They are supplied at construction
// rather than compiled in so they can be overridden.
type Config struct {
	TemplateRepo    string
	ServiceName     string
	EnvironmentName string
	MountPath       string
	StateDir        string
	WorkspaceDir    string
	GatewayHost     string
	GatewayPort     string
	// PendingDomain is recorded when the platform has not assigned a domain yet.
	PendingDomain string
	// CatalogApiKey is optional. When set it is passed on to the buddy.
	CatalogApiKey string
}

func DefaultConfig() Config {
	return Config{
		TemplateRepo:    "arjunkomath/openclaw-railway-template",
		ServiceName:     "OpenClaw",
		EnvironmentName: "production",
		MountPath:       "/data",
		StateDir:        "/data/.openclaw",
		WorkspaceDir:    "/data/workspace",
		GatewayHost:     "127.0.0.1",
		GatewayPort:     "18789",
		PendingDomain:   "pending...",
	}
}

// WithDefaults fills any empty field, except CatalogApiKey, from DefaultConfig.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	c.TemplateRepo = strutil.DefaultIfEmpty(c.TemplateRepo, defaults.TemplateRepo)
	c.ServiceName = strutil.DefaultIfEmpty(c.ServiceName, defaults.ServiceName)
	c.EnvironmentName = strutil.DefaultIfEmpty(c.EnvironmentName, defaults.EnvironmentName)
	c.MountPath = strutil.DefaultIfEmpty(c.MountPath, defaults.MountPath)
	c.StateDir = strutil.DefaultIfEmpty(c.StateDir, defaults.StateDir)
	c.WorkspaceDir = strutil.DefaultIfEmpty(c.WorkspaceDir, defaults.WorkspaceDir)
	c.GatewayHost = strutil.DefaultIfEmpty(c.GatewayHost, defaults.GatewayHost)
	c.GatewayPort = strutil.DefaultIfEmpty(c.GatewayPort, defaults.GatewayPort)
	c.PendingDomain = strutil.DefaultIfEmpty(c.PendingDomain, defaults.PendingDomain)

	return c
}

// BuildVariables returns the variable set written to the buddy's service.
func BuildVariables(config Config, request Request) map[string]string {
	variables := map[string]string{
		ModelVariable:        request.ModelId,
		StateDirVariable:     config.StateDir,
		WorkspaceDirVariable: config.WorkspaceDir,
		GatewayHostVariable:  config.GatewayHost,
		GatewayPortVariable:  config.GatewayPort,
	}

	if request.ChannelToken != "" {
		variables[ChannelTokenVariable] = request.ChannelToken
	}

	if config.CatalogApiKey != "" {
		variables[CatalogApiKeyVariable] = config.CatalogApiKey
	}

	return variables
}
