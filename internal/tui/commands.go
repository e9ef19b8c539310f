package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/easycue/easycue/internal/models"
)

const (
	pollInterval = time.Second
	callTimeout  = 15 * time.Second
	noticeTTL    = 4 * time.Second
)

func fetchStatusCmd(client ServiceClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		info, err := client.GetStatus(ctx)
		if err != nil {
			return DisconnectedMsg{Err: err}
		}
		return StatusMsg{Info: info}
	}
}

func actionCmd(call func(context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		msg, err := call(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return ActionDoneMsg{Message: msg}
	}
}

// copyAddress is swapped out in tests.
var copyAddress = clipboard.WriteAll

func copyAddressCmd() tea.Cmd {
	return func() tea.Msg {
		if err := copyAddress(models.ServiceAddress); err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to copy address: %w", err)}
		}
		return CopiedMsg{Address: models.ServiceAddress}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func clearNoticeCmd() tea.Cmd {
	return tea.Tick(noticeTTL, func(_ time.Time) tea.Msg {
		return ClearNoticeMsg{}
	})
}
