// Package presenter maps service status onto the tray menu and routes menu
// actions to the supervisor. It has no dependency on the native tray.
package presenter

import "github.com/easycue/easycue/internal/models"

// Service is the supervisor surface the tray drives.
type Service interface {
	Start() (string, error)
	Stop() (string, error)
	Toggle() (string, error)
	Snapshot() models.ServiceInfo
}

// View is the set of visible affordances the presenter updates.
type View interface {
	SetStatusLine(text string)
	SetStartEnabled(enabled bool)
	SetStopEnabled(enabled bool)
	SetTooltip(text string)
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title, message string) error
}
