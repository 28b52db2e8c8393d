// Package config loads and validates the orchestrator's configuration:
// listen ports, logging, pre-configured Agent/Service entries, and the
// MCP server list.
package config

// OrchestratorConfig is the complete configuration for one hub
// instance.
type OrchestratorConfig struct {
	Name string `yaml:"name,omitempty"`

	Ports   Ports   `yaml:"ports"`
	Logging Logging `yaml:"logging"`
	Reload  Reload  `yaml:"reload"`

	Agents     []AgentConfig     `yaml:"agents,omitempty"`
	Services   []ServiceConfig   `yaml:"services,omitempty"`
	MCPServers []MCPServerConfig `yaml:"mcp-servers,omitempty"`
}

// Ports holds the three ConnectionEndpoint listen ports.
type Ports struct {
	Agent   int `yaml:"agent"`
	Client  int `yaml:"client"`
	Service int `yaml:"service"`
}

// Logging controls the structured logger.
type Logging struct {
	Level     string `yaml:"level,omitempty"`     // debug|info|warn|error
	Format    string `yaml:"format,omitempty"`    // json|text
	File      string `yaml:"file,omitempty"`      // rotating log file path; empty = stderr only
	AddSource bool   `yaml:"addSource,omitempty"`
}

// Reload controls config-file hot reload.
type Reload struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// AgentConfig pre-configures an Agent identity ahead of its first
// connection (spec.md §4.2's "pre-configuration then connect"
// pattern): the router accepts the agent.register for this name and
// carries over id/capabilities/manifest rather than minting fresh
// defaults.
type AgentConfig struct {
	ID           string         `yaml:"id,omitempty"`
	Name         string         `yaml:"name"`
	Capabilities []string       `yaml:"capabilities,omitempty"`
	Manifest     map[string]any `yaml:"manifest,omitempty"`
}

// ServiceConfig pre-configures a Service identity the same way.
type ServiceConfig struct {
	ID           string   `yaml:"id,omitempty"`
	Name         string   `yaml:"name"`
	Capabilities []string `yaml:"capabilities,omitempty"`
}

// MCPServerConfig describes one MCP subprocess server to register
// with the MCP adapter.
type MCPServerConfig struct {
	ID           string            `yaml:"id,omitempty"`
	Name         string            `yaml:"name"`
	Command      []string          `yaml:"command"`
	WorkDir      string            `yaml:"workDir,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	Capabilities []string          `yaml:"capabilities,omitempty"`
	AutoConnect  bool              `yaml:"autoConnect,omitempty"`
}

// Default listen ports, used when neither CLI flags, config file, nor
// environment variables set them (spec.md §6.2 resolution order).
const (
	DefaultAgentPort   = 3000
	DefaultClientPort  = 3001
	DefaultServicePort = 3002
)

// SetDefaults fills in zero-value fields with built-in defaults. Called
// after YAML parsing and before environment/CLI overrides are layered
// on top by the caller.
func (c *OrchestratorConfig) SetDefaults() {
	if c.Ports.Agent == 0 {
		c.Ports.Agent = DefaultAgentPort
	}
	if c.Ports.Client == 0 {
		c.Ports.Client = DefaultClientPort
	}
	if c.Ports.Service == 0 {
		c.Ports.Service = DefaultServicePort
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	for i := range c.MCPServers {
		if c.MCPServers[i].ID == "" {
			c.MCPServers[i].ID = c.MCPServers[i].Name
		}
	}
}
