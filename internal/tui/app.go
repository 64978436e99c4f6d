package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sadopc/todos/internal/export"
	"github.com/sadopc/todos/internal/logging"
	"github.com/sadopc/todos/internal/store"
	"github.com/sadopc/todos/internal/todo"
)

// Options configures the App. Zero values fall back to defaults.
type Options struct {
	StorageKey string
	ExportDir  string
	Logger     *log.Logger
	Mouse      bool
}

// App is the root Bubble Tea model.
type App struct {
	opts   Options
	log    *log.Logger
	zones  *zone.Manager
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	list    listModel
	summary summaryModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp loads the saved projects from kv and builds the UI around them.
// Unreadable data is logged and replaced by a fresh state.
func NewApp(kv todo.KV, opts Options) App {
	if opts.StorageKey == "" {
		opts.StorageKey = todo.StorageKey
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	var status string
	state, err := todo.Load(kv, opts.StorageKey)
	if err != nil {
		opts.Logger.Warn("discarding stored state", "key", opts.StorageKey, "err", err)
		status = "Saved data could not be read; starting fresh"
		if errors.Is(err, todo.ErrCorruptState) {
			status = backupCorrupt(kv, opts.StorageKey, opts.Logger)
		}
	} else {
		opts.Logger.Info("loaded state", "key", opts.StorageKey, "projects", len(state.Projects()))
	}

	var zones *zone.Manager
	if opts.Mouse {
		zones = zone.New()
	}

	h := help.New()
	h.ShowAll = false

	return App{
		opts:       opts,
		log:        opts.Logger,
		zones:      zones,
		activeView: viewProjects,
		list:       newListModel(kv, opts.StorageKey, state, opts.Logger, zones),
		summary:    newSummaryModel(),
		help:       h,
		status:     status,
		statusErr:  err != nil,
	}
}

// backupCorrupt copies an unreadable value to <key>.corrupt so the next save
// does not destroy it.
func backupCorrupt(kv todo.KV, key string, logger *log.Logger) string {
	raw, ok, err := kv.Get(key)
	if err != nil || !ok {
		return "Saved data could not be read; starting fresh"
	}
	backup := key + ".corrupt"
	if err := kv.Set(backup, raw); err != nil {
		logger.Error("back up corrupt state", "key", backup, "err", err)
		return "Saved data could not be read; starting fresh"
	}
	logger.Info("backed up corrupt state", "key", backup, "bytes", len(raw))
	return "Saved data could not be read; old copy kept as " + backup
}

// entryStore is implemented by stores that record when a key was written.
type entryStore interface {
	Entry(key string) (*store.Entry, error)
}

func (a App) Init() tea.Cmd {
	return tea.SetWindowTitle("todos")
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.list.setSize(a.width, contentHeight)
		a.summary.setSize(a.width, contentHeight)
		return a, nil

	case tea.MouseMsg:
		if a.exportPicking {
			return a, nil
		}
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}
		if a.zones != nil && msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			for i := range viewNames {
				if a.zones.Get(tabZone(viewState(i))).InBounds(msg) {
					return a.switchView(viewState(i))
				}
			}
		}

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// The form captures every key while open.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewProjects)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewSummary)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.log.Info("exported todos", "path", msg.path, "count", msg.count)
		a.status = fmt.Sprintf("Exported %d todos to %s", msg.count, msg.path)
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewSummary {
		a.summary.refresh(a.list.state.Projects(), a.list.now())
		a.summary.savedAt = time.Time{}
		if es, ok := a.list.kv.(entryStore); ok {
			if e, err := es.Entry(a.opts.StorageKey); err == nil {
				a.summary.savedAt = e.UpdatedAt
			}
		}
	}
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if a.activeView == viewProjects {
		a.list, cmd = a.list.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewProjects && a.list.formActive()
}

func tabZone(v viewState) string {
	return fmt.Sprintf("tab:%d", v)
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewProjects:
		content = a.list.view()
	case viewSummary:
		content = a.summary.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
	if a.zones != nil {
		return a.zones.Scan(out)
	}
	return out
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		style := inactiveTabStyle
		if viewState(i) == a.activeView {
			style = activeTabStyle
		}
		tab := style.Render(name)
		if a.zones != nil {
			tab = a.zones.Mark(tabZone(viewState(i)), tab)
		}
		tabs = append(tabs, tab)
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("todos")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := statusBarStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render("Writes to "+a.opts.ExportDir))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes a snapshot of the current projects off the update loop.
func (a App) doExport(format int) tea.Cmd {
	projects := a.list.state.Projects()
	dir := a.opts.ExportDir
	logger := a.log
	return func() tea.Msg {
		count := 0
		for _, p := range projects {
			count += len(p.Todos)
		}
		date := time.Now().Format(todo.DateLayout)

		var path string
		var err error
		if format == 0 {
			path = filepath.Join(dir, export.FileName(date, "csv"))
			err = export.ToCSV(projects, path)
		} else {
			path = filepath.Join(dir, export.FileName(date, "json"))
			err = export.ToJSON(projects, path)
		}
		if err != nil {
			logger.Error("export failed", "path", path, "err", err)
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path, count: count}
	}
}
