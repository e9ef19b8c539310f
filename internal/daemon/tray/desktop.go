// Package tray runs the system tray icon and menu for the daemon.
package tray

import (
	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
)

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll implements presenter.Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// DesktopNotifier shows native desktop notifications.
type DesktopNotifier struct{}

// Notify implements presenter.Notifier.
func (DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}
