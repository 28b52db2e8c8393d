package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation errors:\n  - " + strings.Join(msgs, "\n  - ")
}

// Validate checks an OrchestratorConfig for structural errors: port
// conflicts, duplicate pre-configured names, and malformed MCP server
// entries.
func Validate(c *OrchestratorConfig) error {
	var errs ValidationErrors

	errs = append(errs, validatePorts(c)...)

	agentNames := make(map[string]bool)
	for i, a := range c.Agents {
		prefix := fmt.Sprintf("agents[%d]", i)
		if a.Name == "" {
			errs = append(errs, ValidationError{prefix + ".name", "is required"})
		} else if agentNames[a.Name] {
			errs = append(errs, ValidationError{prefix + ".name", fmt.Sprintf("duplicate agent name %q", a.Name)})
		} else {
			agentNames[a.Name] = true
		}
	}

	serviceNames := make(map[string]bool)
	for i, s := range c.Services {
		prefix := fmt.Sprintf("services[%d]", i)
		if s.Name == "" {
			errs = append(errs, ValidationError{prefix + ".name", "is required"})
		} else if serviceNames[s.Name] {
			errs = append(errs, ValidationError{prefix + ".name", fmt.Sprintf("duplicate service name %q", s.Name)})
		} else {
			serviceNames[s.Name] = true
		}
	}

	mcpIDs := make(map[string]bool)
	for i, m := range c.MCPServers {
		prefix := fmt.Sprintf("mcp-servers[%d]", i)
		if m.Name == "" {
			errs = append(errs, ValidationError{prefix + ".name", "is required"})
		}
		if len(m.Command) == 0 {
			errs = append(errs, ValidationError{prefix + ".command", "is required"})
		}
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if id != "" {
			if mcpIDs[id] {
				errs = append(errs, ValidationError{prefix + ".id", fmt.Sprintf("duplicate mcp server id %q", id)})
			}
			mcpIDs[id] = true
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"logging.level", "must be one of debug, info, warn, error"})
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, ValidationError{"logging.format", "must be 'json' or 'text'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePorts(c *OrchestratorConfig) ValidationErrors {
	var errs ValidationErrors
	ports := map[string]int{
		"ports.agent":   c.Ports.Agent,
		"ports.client":  c.Ports.Client,
		"ports.service": c.Ports.Service,
	}
	seen := make(map[int]string)
	for field, port := range ports {
		if port <= 0 || port > 65535 {
			errs = append(errs, ValidationError{field, "must be between 1 and 65535"})
			continue
		}
		if other, ok := seen[port]; ok {
			errs = append(errs, ValidationError{field, fmt.Sprintf("conflicts with %s (both %d)", other, port)})
		}
		seen[port] = field
	}
	return errs
}
