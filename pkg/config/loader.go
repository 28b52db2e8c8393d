package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the orchestrator config at path: YAML parse,
// environment-variable expansion, default application, relative-path
// resolution against the config file's directory, then validation.
func Load(path string) (*OrchestratorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg OrchestratorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	expandEnvVars(&cfg)
	cfg.SetDefaults()

	basePath := filepath.Dir(path)
	resolveRelativePaths(&cfg, basePath)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnvVars expands $VAR/${VAR} references across every string
// field that plausibly carries one: names, commands, env values,
// manifest strings. Mirrors the teacher loader's per-field ExpandEnv
// sweep rather than a single blanket pass over the raw YAML text, so
// non-string YAML values are never accidentally stringified.
func expandEnvVars(c *OrchestratorConfig) {
	c.Name = os.ExpandEnv(c.Name)
	c.Logging.File = os.ExpandEnv(c.Logging.File)

	for i := range c.Agents {
		c.Agents[i].Name = os.ExpandEnv(c.Agents[i].Name)
		c.Agents[i].Manifest = expandManifest(c.Agents[i].Manifest)
	}
	for i := range c.Services {
		c.Services[i].Name = os.ExpandEnv(c.Services[i].Name)
	}
	for i := range c.MCPServers {
		c.MCPServers[i].Name = os.ExpandEnv(c.MCPServers[i].Name)
		c.MCPServers[i].WorkDir = os.ExpandEnv(c.MCPServers[i].WorkDir)
		for j := range c.MCPServers[i].Command {
			c.MCPServers[i].Command[j] = os.ExpandEnv(c.MCPServers[i].Command[j])
		}
		for k, v := range c.MCPServers[i].Env {
			c.MCPServers[i].Env[k] = os.ExpandEnv(v)
		}
	}
}

// expandManifest expands environment references in the string leaves
// of a manifest map, leaving other value kinds (bools, numbers,
// nested lists used by requiredServices) untouched.
func expandManifest(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			m[k] = os.ExpandEnv(s)
		}
	}
	return m
}

// resolveRelativePaths resolves MCP server working directories
// relative to the config file's own directory, so a config can be
// invoked from any working directory.
func resolveRelativePaths(c *OrchestratorConfig, basePath string) {
	for i := range c.MCPServers {
		wd := c.MCPServers[i].WorkDir
		if wd != "" && !filepath.IsAbs(wd) {
			c.MCPServers[i].WorkDir = filepath.Join(basePath, wd)
		}
	}
	if c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		c.Logging.File = filepath.Join(basePath, c.Logging.File)
	}
}
