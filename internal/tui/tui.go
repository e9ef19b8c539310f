// Package tui implements the interactive service monitor for EasyCue.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/easycue/easycue/internal/models"
)

// ServiceClient is the control API surface the monitor uses.
type ServiceClient interface {
	StartService(ctx context.Context) (string, error)
	StopService(ctx context.Context) (string, error)
	ToggleService(ctx context.Context) (string, error)
	GetStatus(ctx context.Context) (models.ServiceInfo, error)
}

// Run launches the monitor and blocks until the user quits.
func Run(client ServiceClient) error {
	p := tea.NewProgram(NewModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
