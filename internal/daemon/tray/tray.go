package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"

	"github.com/easycue/easycue/internal/buildinfo"
	"github.com/easycue/easycue/internal/daemon/supervisor"
	"github.com/easycue/easycue/internal/daemon/tray/presenter"
)

// Deps are the collaborators the tray needs once it is ready.
type Deps struct {
	Service   presenter.Service
	Events    <-chan supervisor.Event
	Clipboard presenter.Clipboard
	Notifier  presenter.Notifier
}

var (
	deps    Deps
	onStart func()
	onExit  func()

	presMu sync.Mutex
	pres   *presenter.Presenter
)

func current() *presenter.Presenter {
	presMu.Lock()
	defer presMu.Unlock()
	return pres
}

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready, before the menu is first rendered.
// onExitFn is called when the tray exits (cleanup here).
func Run(d Deps, onStartFn, onExitFn func()) {
	deps = d
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit. The service is stopped first.
func Quit() {
	if p := current(); p != nil {
		p.OnQuit()
		return
	}
	systray.Quit()
}

// menu holds the tray menu items and implements presenter.View.
type menu struct {
	status *systray.MenuItem
	start  *systray.MenuItem
	stop   *systray.MenuItem
	copy   *systray.MenuItem
	about  *systray.MenuItem
	quit   *systray.MenuItem
}

func (m *menu) SetStatusLine(text string) { m.status.SetTitle(text) }

func (m *menu) SetStartEnabled(enabled bool) { setEnabled(m.start, enabled) }

func (m *menu) SetStopEnabled(enabled bool) { setEnabled(m.stop, enabled) }

func (m *menu) SetTooltip(text string) { systray.SetTooltip(text) }

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip(presenter.TooltipTitle)

	m := &menu{}
	m.status = systray.AddMenuItem("Starting...", "Click to start or stop the service")
	systray.AddSeparator()
	m.start = systray.AddMenuItem("Start Service", "Start the background service")
	m.stop = systray.AddMenuItem("Stop Service", "Stop the background service")
	systray.AddSeparator()
	m.copy = systray.AddMenuItem("Copy Address", "Copy the service address to the clipboard")
	m.about = systray.AddMenuItem("About", "About "+buildinfo.AppName)
	systray.AddSeparator()
	m.quit = systray.AddMenuItem("Quit", "Stop the service and quit "+buildinfo.AppName)

	p := presenter.New(deps.Service, m, deps.Clipboard, deps.Notifier, systray.Quit)
	presMu.Lock()
	pres = p
	presMu.Unlock()

	if onStart != nil {
		onStart()
	}

	p.Refresh()

	if deps.Events != nil {
		go p.Watch(deps.Events)
	}

	go handleClicks(m, p)
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks(m *menu, p *presenter.Presenter) {
	for {
		select {
		case <-m.status.ClickedCh:
			p.OnTrayClick()
		case <-m.start.ClickedCh:
			p.OnStart()
		case <-m.stop.ClickedCh:
			p.OnStop()
		case <-m.copy.ClickedCh:
			_, _ = p.OnCopy()
		case <-m.about.ClickedCh:
			p.OnAbout()
		case <-m.quit.ClickedCh:
			log.Println("[tray] Quit requested")
			p.OnQuit()
			return
		}
	}
}
