package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// AgentSummary contains one row of the connected-Agents status table.
type AgentSummary struct {
	ID           string
	Name         string
	Status       string // online, busy, offline, error, maintenance
	Capabilities string
}

// ClientSummary contains one row of the connected-Clients status table.
type ClientSummary struct {
	ID     string
	Name   string
	Status string
}

// ServiceSummary contains one row of the connected-Services status
// table.
type ServiceSummary struct {
	ID           string
	Name         string
	Status       string
	Tools        int
}

// MCPServerSummary contains one row of the MCP server status table.
type MCPServerSummary struct {
	ID     string
	Name   string
	Status string // registered, connecting, online, offline, error
	Tools  int
}

// Agents prints the connected-Agents status table.
func (p *Printer) Agents(agents []AgentSummary) {
	if len(agents) == 0 {
		return
	}
	p.Section("AGENTS")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())
	t.AppendHeader(table.Row{"ID", "Name", "Status", "Capabilities"})

	for _, a := range agents {
		status := a.Status
		if p.isTTY {
			status = colorState(a.Status)
		}
		t.AppendRow(table.Row{a.ID, a.Name, status, a.Capabilities})
	}

	t.Render()
	p.Println()
}

// Clients prints the connected-Clients status table.
func (p *Printer) Clients(clients []ClientSummary) {
	if len(clients) == 0 {
		return
	}
	p.Section("CLIENTS")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())
	t.AppendHeader(table.Row{"ID", "Name", "Status"})

	for _, c := range clients {
		status := c.Status
		if p.isTTY {
			status = colorState(c.Status)
		}
		t.AppendRow(table.Row{c.ID, c.Name, status})
	}

	t.Render()
	p.Println()
}

// Services prints the connected-Services status table.
func (p *Printer) Services(services []ServiceSummary) {
	if len(services) == 0 {
		return
	}
	p.Section("SERVICES")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())
	t.AppendHeader(table.Row{"ID", "Name", "Status", "Tools"})

	for _, s := range services {
		status := s.Status
		if p.isTTY {
			status = colorState(s.Status)
		}
		t.AppendRow(table.Row{s.ID, s.Name, status, s.Tools})
	}

	t.Render()
	p.Println()
}

// MCPServers prints the MCP server status table.
func (p *Printer) MCPServers(servers []MCPServerSummary) {
	if len(servers) == 0 {
		return
	}
	p.Section("MCP SERVERS")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())
	t.AppendHeader(table.Row{"ID", "Name", "Status", "Tools"})

	for _, s := range servers {
		status := s.Status
		if p.isTTY {
			status = colorState(s.Status)
		}
		t.AppendRow(table.Row{s.ID, s.Name, status, s.Tools})
	}

	t.Render()
	p.Println()
}

// colorState applies color to a status string based on its value.
func colorState(state string) string {
	var style lipgloss.Style
	switch state {
	case "online", "running", "ready":
		style = lipgloss.NewStyle().Foreground(ColorGreen)
	case "failed", "error", "exited":
		style = lipgloss.NewStyle().Foreground(ColorRed)
	case "busy", "connecting", "pending", "creating":
		style = lipgloss.NewStyle().Foreground(ColorAmber)
	case "offline", "stopped":
		style = lipgloss.NewStyle().Foreground(ColorMuted)
	default:
		style = lipgloss.NewStyle().Foreground(ColorGray)
	}
	return style.Render(state)
}

// tableStyle returns the standard amber-themed table style.
func (p *Printer) tableStyle() table.Style {
	style := table.StyleRounded
	if p.isTTY {
		style.Color.Header = text.Colors{text.FgHiYellow, text.Bold}
		style.Color.Border = text.Colors{text.FgHiBlack}
	}
	style.Options.SeparateRows = false
	return style
}

// Section prints a section header.
func (p *Printer) Section(title string) {
	if p.isTTY {
		style := lipgloss.NewStyle().Foreground(ColorAmber).Bold(true)
		p.Println(style.Render(title))
	} else {
		p.Println(title)
	}
}
