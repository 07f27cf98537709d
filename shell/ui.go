package shell

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	cmdStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	suggestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	bannerStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 2)
)

func banner() string {
	lines := []string{
		headStyle.Render("Welcome to llmsh"),
		"",
		"• Use natural language for commands",
		"• Type '??' after a command for suggestions",
		"• Start with '?' to ask a question",
		"• Type 'help' for more information",
	}
	return bannerStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func helpText() string {
	var b strings.Builder
	section := func(title string, entries ...string) {
		b.WriteString("\n" + headStyle.Render(title) + "\n")
		for _, e := range entries {
			b.WriteString("  " + e + "\n")
		}
	}
	section("Basic Commands:",
		"cd [dir]              - Change directory",
		"export NAME=VALUE     - Set an environment variable",
		"alias [name[=value]]  - List or set aliases",
		"unalias name          - Remove an alias",
		"history [n]           - Show command history",
		"jobs                  - List background jobs",
		"fg [job]              - Bring job to foreground",
		"bg [job]              - Continue job in background",
		"kill [-SIG] job|pid   - Signal a job or process",
		"type name             - Describe how a name resolves",
		"exit [n]              - Exit the shell",
	)
	section("Special Features:",
		"command??             - Show command suggestions",
		"?query                - Ask a question",
		"use natural language  - Type requests in plain English",
	)
	section("Examples:",
		"? How do I find large files?",
		"find all go files modified in the last week",
		"ps ??                 - Show suggestions for ps",
	)
	return b.String()
}
