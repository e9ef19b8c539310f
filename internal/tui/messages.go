package tui

import "github.com/easycue/easycue/internal/models"

// StatusMsg carries a status snapshot from GetStatus.
type StatusMsg struct {
	Info models.ServiceInfo
}

// DisconnectedMsg signals that the daemon could not be reached.
type DisconnectedMsg struct {
	Err error
}

// ActionDoneMsg carries the result message of a start, stop or toggle.
type ActionDoneMsg struct {
	Message string
}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// CopiedMsg signals the address was copied to the clipboard.
type CopiedMsg struct {
	Address string
}

// TickMsg is a periodic tick for polling.
type TickMsg struct{}

// ClearNoticeMsg clears the last action message.
type ClearNoticeMsg struct{}
