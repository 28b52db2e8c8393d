package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinter_Agents_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Agents(nil)

	if buf.Len() != 0 {
		t.Errorf("Agents(nil) should output nothing, got %q", buf.String())
	}
}

func TestPrinter_Agents_WithData(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Agents([]AgentSummary{
		{ID: "a-1", Name: "planner", Status: "online", Capabilities: "planning,search"},
	})

	got := buf.String()
	for _, want := range []string{"AGENTS", "NAME", "STATUS", "planner", "online"} {
		if !strings.Contains(got, want) {
			t.Errorf("Agents() output missing %q, got %q", want, got)
		}
	}
}

func TestPrinter_Clients_WithData(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Clients([]ClientSummary{{ID: "c-1", Name: "cli-session", Status: "online"}})

	got := buf.String()
	for _, want := range []string{"CLIENTS", "cli-session"} {
		if !strings.Contains(got, want) {
			t.Errorf("Clients() output missing %q, got %q", want, got)
		}
	}
}

func TestPrinter_Services_WithData(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Services([]ServiceSummary{{ID: "s-1", Name: "search", Status: "online", Tools: 3}})

	got := buf.String()
	for _, want := range []string{"SERVICES", "search", "3"} {
		if !strings.Contains(got, want) {
			t.Errorf("Services() output missing %q, got %q", want, got)
		}
	}
}

func TestPrinter_MCPServers_WithData(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.MCPServers([]MCPServerSummary{{ID: "filesystem", Name: "filesystem", Status: "online", Tools: 5}})

	got := buf.String()
	for _, want := range []string{"MCP SERVERS", "filesystem", "5"} {
		if !strings.Contains(got, want) {
			t.Errorf("MCPServers() output missing %q, got %q", want, got)
		}
	}
}

func TestColorState(t *testing.T) {
	tests := []string{"online", "busy", "offline", "error", "maintenance", "unknown"}
	for _, state := range tests {
		t.Run(state, func(t *testing.T) {
			result := colorState(state)
			if !strings.Contains(result, state) {
				t.Errorf("colorState(%q) = %q, should contain %q", state, result, state)
			}
		})
	}
}
