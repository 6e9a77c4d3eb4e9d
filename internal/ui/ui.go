// Package ui provides terminal styling helpers for CLI output.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderPass styles text as a success marker (green).
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn styles text as a warning marker (yellow).
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail styles text as a failure marker (red).
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderAccent styles text as an accent (cyan).
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderDim styles text as secondary detail (gray).
func RenderDim(s string) string { return dimStyle.Render(s) }
