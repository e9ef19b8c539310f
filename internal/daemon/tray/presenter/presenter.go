package presenter

import (
	"fmt"
	"log"
	"sync"

	"github.com/easycue/easycue/internal/buildinfo"
	"github.com/easycue/easycue/internal/daemon/supervisor"
	"github.com/easycue/easycue/internal/models"
)

// TooltipTitle is the tooltip prefix shown for every state.
const TooltipTitle = buildinfo.AppName + " - PromptX Client"

// Display is what the menu and tooltip should show for a given status.
type Display struct {
	StatusLine   string
	Tooltip      string
	StartEnabled bool
	StopEnabled  bool
}

// Render maps a status snapshot to its display. Start and Stop are mutually
// exclusive in stable states and both disabled while a transition is in progress.
func Render(info models.ServiceInfo) Display {
	var d Display
	switch info.Status.State {
	case models.StateStopped:
		d.StatusLine = "○ Stopped (click to start)"
		d.Tooltip = TooltipTitle + " (stopped)"
		d.StartEnabled = true
	case models.StateStarting:
		d.StatusLine = "◌ Starting..."
		d.Tooltip = TooltipTitle + " (starting)"
	case models.StateRunning:
		if info.PID > 0 {
			d.StatusLine = fmt.Sprintf("● Running, PID %d (click to stop)", info.PID)
		} else {
			d.StatusLine = "● Running (click to stop)"
		}
		d.Tooltip = TooltipTitle + " (running)"
		d.StopEnabled = true
	case models.StateStopping:
		d.StatusLine = "◌ Stopping..."
		d.Tooltip = TooltipTitle + " (stopping)"
	case models.StateError:
		d.StatusLine = "✕ Error: " + info.Status.Message
		d.Tooltip = TooltipTitle + " (error)"
		d.StartEnabled = true
	}
	return d
}

// Presenter reflects supervisor status into the tray and routes menu events
// into supervisor calls. After every call it re-syncs from the supervisor's
// post-call status, never from what the call was meant to do.
type Presenter struct {
	svc    Service
	view   View
	clip   Clipboard
	notify Notifier
	exit   func()

	mu      sync.Mutex
	lastSeq uint64
	shown   bool
}

// New creates a presenter. notify may be nil to disable notifications.
func New(svc Service, view View, clip Clipboard, notify Notifier, exit func()) *Presenter {
	return &Presenter{
		svc:    svc,
		view:   view,
		clip:   clip,
		notify: notify,
		exit:   exit,
	}
}

// Refresh re-reads the supervisor status and updates the view.
func (p *Presenter) Refresh() {
	p.apply(p.svc.Snapshot())
}

// Watch applies supervisor events until the channel is closed.
func (p *Presenter) Watch(events <-chan supervisor.Event) {
	for ev := range events {
		p.apply(ev.Info)
	}
}

// apply renders info unless a newer snapshot has already been shown.
func (p *Presenter) apply(info models.ServiceInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shown && info.Seq < p.lastSeq {
		return
	}
	p.lastSeq = info.Seq
	p.shown = true

	d := Render(info)
	p.view.SetStatusLine(d.StatusLine)
	p.view.SetStartEnabled(d.StartEnabled)
	p.view.SetStopEnabled(d.StopEnabled)
	p.view.SetTooltip(d.Tooltip)
}

// OnStart handles the Start menu item.
func (p *Presenter) OnStart() {
	p.report("start", p.svc.Start)
	p.Refresh()
}

// OnStop handles the Stop menu item.
func (p *Presenter) OnStop() {
	p.report("stop", p.svc.Stop)
	p.Refresh()
}

// OnTrayClick toggles the service: stop if running, start otherwise.
func (p *Presenter) OnTrayClick() {
	p.report("toggle", p.svc.Toggle)
	p.Refresh()
}

// OnCopy puts the service address on the clipboard and returns it.
// A clipboard failure is also shown as a notification.
func (p *Presenter) OnCopy() (string, error) {
	addr := models.ServiceAddress
	if err := p.clip.WriteAll(addr); err != nil {
		log.Printf("[tray] Failed to copy address: %v", err)
		err = fmt.Errorf("failed to copy address: %w", err)
		p.showNotification(buildinfo.AppName, err.Error())
		return "", err
	}
	log.Printf("[tray] Copied %s to clipboard", addr)
	return addr, nil
}

// OnAbout shows version information and returns the text shown.
func (p *Presenter) OnAbout() string {
	text := AboutText()
	p.showNotification("About "+buildinfo.AppName, text)
	return text
}

// OnQuit stops the service, ignoring the result, then exits.
func (p *Presenter) OnQuit() {
	if _, err := p.svc.Stop(); err != nil {
		log.Printf("[tray] Stop on quit failed: %v", err)
	}
	p.exit()
}

// AboutText returns the product name and build information.
func AboutText() string {
	return fmt.Sprintf("%s %s (%s)\nCommit %s, built %s",
		buildinfo.AppName, buildinfo.Version, buildinfo.Codename,
		buildinfo.CommitHash, buildinfo.BuildDate)
}

func (p *Presenter) report(action string, fn func() (string, error)) {
	msg, err := fn()
	if err != nil {
		log.Printf("[tray] %s failed: %v", action, err)
		p.showNotification(buildinfo.AppName, err.Error())
		return
	}
	log.Printf("[tray] %s: %s", action, msg)
}

func (p *Presenter) showNotification(title, message string) {
	if p.notify == nil {
		return
	}
	if err := p.notify.Notify(title, message); err != nil {
		log.Printf("[tray] Notification failed: %v", err)
	}
}
