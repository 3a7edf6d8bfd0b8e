package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-studio/internal/exports"
)

const refreshInterval = 5 * time.Second

// ProjectCounter reports how many projects are open.
type ProjectCounter interface {
	Len() int
}

// ExportLister yields the most recent export job.
type ExportLister interface {
	Latest(ctx context.Context) (*exports.Job, error)
}

type Tray struct {
	projects ProjectCounter
	exports  ExportLister
	logger   *slog.Logger
	url      string

	projectsItem *systray.MenuItem
	exportItem   *systray.MenuItem

	mu   sync.Mutex
	stop chan struct{}

	onCopyURL func(url string)
	onQuit    func()
}

type TrayConfig struct {
	Projects  ProjectCounter
	Exports   ExportLister
	Logger    *slog.Logger
	URL       string
	OnCopyURL func(url string)
	OnQuit    func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		projects:  cfg.Projects,
		exports:   cfg.Exports,
		logger:    cfg.Logger,
		url:       cfg.URL,
		stop:      make(chan struct{}),
		onCopyURL: cfg.OnCopyURL,
		onQuit:    cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Heimdex Studio")
	systray.SetTooltip("Heimdex Studio " + t.url)

	t.projectsItem = systray.AddMenuItem(projectsLabel(0), "Open projects")
	t.projectsItem.Disable()

	t.exportItem = systray.AddMenuItem(exportLabel(nil), "Most recent export")
	t.exportItem.Disable()

	systray.AddSeparator()

	urlItem := systray.AddMenuItem("API: "+t.url, "Log the local API address")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Studio")

	t.refresh()

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.refresh()
			case <-urlItem.ClickedCh:
				if t.onCopyURL != nil {
					t.onCopyURL(t.url)
				}
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			case <-t.stop:
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) refresh() {
	count := 0
	if t.projects != nil {
		count = t.projects.Len()
	}

	var job *exports.Job
	if t.exports != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		latest, err := t.exports.Latest(ctx)
		cancel()
		if err != nil {
			t.logger.Warn("failed to read latest export", "error", err)
		}
		job = latest
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.projectsItem.SetTitle(projectsLabel(count))
	t.exportItem.SetTitle(exportLabel(job))
}

func (t *Tray) Quit() {
	t.mu.Lock()
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	t.mu.Unlock()
	systray.Quit()
}

func projectsLabel(n int) string {
	if n == 1 {
		return "1 project open"
	}
	return fmt.Sprintf("%d projects open", n)
}

func exportLabel(j *exports.Job) string {
	if j == nil {
		return "Last export: none"
	}
	return fmt.Sprintf("Last export: %s (%s)", j.Status, j.CreatedAt.Local().Format("15:04"))
}
