package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sadopc/todos/internal/todo"
)

// Actions a row can trigger. Keyboard and mouse both go through dispatch.
type action string

const (
	actExpand        action = "expand"
	actDeleteProject action = "delete-project"
	actDetails       action = "details"
	actToggle        action = "check"
	actEdit          action = "edit"
	actDeleteTodo    action = "delete-todo"
	actNew           action = "new"
)

func zoneID(a action, key string) string {
	return string(a) + ":" + key
}

type rowKind int

const (
	projectRow rowKind = iota
	todoRow
)

// row is one selectable line of the tree.
type row struct {
	kind    rowKind
	project todo.Project
	item    todo.Todo
}

// targets lists the row's clickable zones, innermost controls first so a
// click on a control never also triggers the row it sits on.
func (r row) targets() []action {
	if r.kind == projectRow {
		if r.project.IsDefault() {
			return []action{actExpand}
		}
		return []action{actDeleteProject, actExpand}
	}
	return []action{actToggle, actEdit, actDeleteTodo, actDetails}
}

func (r row) key() string {
	if r.kind == projectRow {
		return r.project.Name
	}
	return r.item.ID
}

type listModel struct {
	kv     todo.KV
	key    string
	log    *log.Logger
	zones  *zone.Manager
	now    func() time.Time
	width  int
	height int

	state    todo.State
	expanded map[string]bool // project name
	details  map[string]bool // todo ID
	cursor   int

	form todoForm
}

func newListModel(kv todo.KV, storageKey string, state todo.State, logger *log.Logger, zones *zone.Manager) listModel {
	return listModel{
		kv:       kv,
		key:      storageKey,
		log:      logger,
		zones:    zones,
		now:      time.Now,
		state:    state,
		expanded: map[string]bool{todo.DefaultProject: true},
		details:  make(map[string]bool),
		form:     newTodoForm(),
	}
}

func (l *listModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l listModel) formActive() bool {
	return l.form.isOpen()
}

// visibleRows flattens the tree: every project, and the todos of expanded
// projects beneath it.
func visibleRows(projects []todo.Project, expanded map[string]bool) []row {
	var rows []row
	for _, p := range projects {
		rows = append(rows, row{kind: projectRow, project: p})
		if !expanded[p.Name] {
			continue
		}
		for _, t := range p.Todos {
			rows = append(rows, row{kind: todoRow, project: p, item: t})
		}
	}
	return rows
}

func (l listModel) rows() []row {
	return visibleRows(l.state.Projects(), l.expanded)
}

func (l listModel) selected() (row, bool) {
	rows := l.rows()
	if l.cursor < 0 || l.cursor >= len(rows) {
		return row{}, false
	}
	return rows[l.cursor], true
}

func (l *listModel) clampCursor() {
	n := len(l.rows())
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

func (l listModel) update(msg tea.Msg) (listModel, tea.Cmd) {
	if l.formActive() {
		return l.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return l.updateKeys(msg)
	case tea.MouseMsg:
		return l.updateMouse(msg)
	}
	return l, nil
}

func (l listModel) updateKeys(msg tea.KeyMsg) (listModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
		return l, nil
	case key.Matches(msg, keys.Down):
		if l.cursor < len(l.rows())-1 {
			l.cursor++
		}
		return l, nil
	case key.Matches(msg, keys.New):
		return l.dispatch(actNew, row{})
	}

	r, ok := l.selected()
	if !ok {
		return l, nil
	}
	switch {
	case key.Matches(msg, keys.Enter):
		if r.kind == projectRow {
			return l.dispatch(actExpand, r)
		}
		return l.dispatch(actDetails, r)
	case key.Matches(msg, keys.Toggle):
		if r.kind == todoRow {
			return l.dispatch(actToggle, r)
		}
		return l.dispatch(actExpand, r)
	case key.Matches(msg, keys.Edit):
		if r.kind == todoRow {
			return l.dispatch(actEdit, r)
		}
	case key.Matches(msg, keys.Delete):
		if r.kind == todoRow {
			return l.dispatch(actDeleteTodo, r)
		}
		return l.dispatch(actDeleteProject, r)
	}
	return l, nil
}

// updateMouse resolves a left click to the first zone under the pointer.
func (l listModel) updateMouse(msg tea.MouseMsg) (listModel, tea.Cmd) {
	if l.zones == nil || msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return l, nil
	}
	if l.zones.Get(zoneID(actNew, "")).InBounds(msg) {
		return l.dispatch(actNew, row{})
	}
	for i, r := range l.rows() {
		for _, a := range r.targets() {
			if l.zones.Get(zoneID(a, r.key())).InBounds(msg) {
				l.cursor = i
				return l.dispatch(a, r)
			}
		}
	}
	return l, nil
}

// dispatch performs exactly one action on a row.
func (l listModel) dispatch(a action, r row) (listModel, tea.Cmd) {
	switch a {
	case actExpand:
		l.expanded[r.project.Name] = !l.expanded[r.project.Name]
		l.clampCursor()
		return l, nil

	case actDetails:
		l.details[r.item.ID] = !l.details[r.item.ID]
		return l, nil

	case actToggle:
		next, t, err := l.state.ToggleComplete(r.project.Name, r.item.ID)
		if err != nil {
			return l, l.fail("toggle todo", err)
		}
		verb := "Reopened"
		if t.Completed {
			verb = "Completed"
		}
		return l.commit(next, fmt.Sprintf("%s %q", verb, t.Name))

	case actDeleteTodo:
		next, err := l.state.DeleteTodo(r.project.Name, r.item.ID)
		if err != nil {
			return l, l.fail("delete todo", err)
		}
		delete(l.details, r.item.ID)
		return l.commit(next, fmt.Sprintf("Deleted %q", r.item.Name))

	case actDeleteProject:
		if r.project.IsDefault() {
			return l, statusCmd("The default project cannot be deleted", true)
		}
		next, err := l.state.DeleteProject(r.project.Name)
		if err != nil {
			return l, l.fail("delete project", err)
		}
		delete(l.expanded, r.project.Name)
		for _, t := range r.project.Todos {
			delete(l.details, t.ID)
		}
		return l.commit(next, fmt.Sprintf("Deleted project %q", r.project.Name))

	case actEdit:
		form, cmd, ok := l.form.openEdit(l.state, r.item.ID, l.now())
		if !ok {
			return l, l.fail("edit todo", todo.ErrTodoNotFound)
		}
		l.form = form
		return l, cmd

	case actNew:
		project := todo.DefaultProject
		if sel, ok := l.selected(); ok {
			project = sel.project.Name
		}
		var cmd tea.Cmd
		l.form, cmd = l.form.openCreate(l.state, project, l.now())
		return l, cmd
	}
	return l, nil
}

func (l listModel) updateForm(msg tea.Msg) (listModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Back) {
		l.form = l.form.cancel()
		return l, nil
	}

	form, cmd := l.form.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form.form = f
	}

	switch l.form.form.State {
	case huh.StateAborted:
		l.form = l.form.cancel()
		return l, nil
	case huh.StateCompleted:
		editing := l.form.mode == formEdit
		next, project, t, err := l.form.submit(l.state)
		if err != nil {
			l.log.Warn("todo form rejected", "err", err)
			var reopen tea.Cmd
			l.form, reopen = l.form.reopen(err)
			return l, reopen
		}
		l.form = l.form.cancel()
		l.expanded[project] = true
		verb := "Added"
		if editing {
			verb = "Updated"
		}
		var saved tea.Cmd
		l, saved = l.commit(next, fmt.Sprintf("%s %q", verb, t.Name))
		l.cursor = l.rowOf(t.ID)
		return l, saved
	}
	return l, cmd
}

// commit adopts next and writes it through to the store. A failed write
// keeps the change in memory and reports it on the status line.
func (l listModel) commit(next todo.State, done string) (listModel, tea.Cmd) {
	l.state = next
	l.clampCursor()
	if err := todo.Save(l.kv, l.key, next); err != nil {
		l.log.Error("save state", "key", l.key, "err", err)
		return l, statusCmd("Save failed: "+err.Error(), true)
	}
	l.log.Debug("saved state", "key", l.key, "change", done)
	return l, statusCmd(done, false)
}

func (l listModel) fail(op string, err error) tea.Cmd {
	l.log.Error(op, "err", err)
	return statusCmd(fmt.Sprintf("Could not %s: %v", op, err), true)
}

func (l listModel) rowOf(id string) int {
	for i, r := range l.rows() {
		if r.kind == todoRow && r.item.ID == id {
			return i
		}
	}
	return l.cursor
}

// mark wraps v in a click zone when mouse support is on.
func (l listModel) mark(id, v string) string {
	if l.zones == nil {
		return v
	}
	return l.zones.Mark(id, v)
}

func (l listModel) view() string {
	w := l.width - 4
	if l.formActive() {
		parts := []string{titleStyle.Render(l.form.title()), ""}
		if l.form.err != "" {
			parts = append(parts, formErrorStyle.Render("✗ "+l.form.err), "")
		}
		parts = append(parts, l.form.form.View())
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	}

	title := titleStyle.Render("Projects")
	add := l.mark(zoneID(actNew, ""), controlStyle.Render("[+ Add New Todo]"))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", add)

	body := renderTree(l.state.Projects(), l.expanded, l.details, l.cursor, l.now(), l.mark)
	hint := mutedStyle.Render("  n: new  e: edit  d: delete  space: done  enter: expand/details")

	return panelStyle.Width(w).Render(strings.Join([]string{header, "", body, "", hint}, "\n"))
}

// renderTree draws the project tree. It reads nothing but its arguments;
// mark decides how clickable regions are tagged.
func renderTree(projects []todo.Project, expanded, details map[string]bool, cursor int, now time.Time, mark func(id, v string) string) string {
	var lines []string
	for i, r := range visibleRows(projects, expanded) {
		sel := i == cursor
		if r.kind == projectRow {
			lines = append(lines, renderProjectRow(r.project, expanded[r.project.Name], sel, mark))
			if expanded[r.project.Name] && len(r.project.Todos) == 0 {
				lines = append(lines, mutedStyle.Render("      No todos yet"))
			}
			continue
		}
		lines = append(lines, renderTodoRow(r.item, sel, now, mark))
		if details[r.item.ID] {
			lines = append(lines, renderDetails(r.item, now)...)
		}
	}
	return strings.Join(lines, "\n")
}

func cursorMark(selected bool) string {
	if selected {
		return "> "
	}
	return "  "
}

func renderProjectRow(p todo.Project, open, selected bool, mark func(id, v string) string) string {
	arrow := "▸"
	style := projectStyle
	if open {
		arrow = "▾"
		style = activeProjectStyle
	}
	if selected {
		style = style.Reverse(true)
	}
	label := mark(zoneID(actExpand, p.Name), style.Render(arrow+" "+p.Label()))
	count := mutedStyle.Render(fmt.Sprintf(" %d/%d", p.CompletedCount(), len(p.Todos)))
	line := cursorMark(selected) + label + count
	if !p.IsDefault() {
		line += "  " + mark(zoneID(actDeleteProject, p.Name), deleteStyle.Render("[×]"))
	}
	return line
}

func renderTodoRow(t todo.Todo, selected bool, now time.Time, mark func(id, v string) string) string {
	check := mutedStyle.Render("[ ]")
	name := normalItemStyle
	if t.Completed {
		check = successStyle.Render("[✓]")
		name = completedStyle
	}
	if selected {
		name = name.Bold(true).Foreground(colorPrimary)
	}

	parts := []string{
		cursorMark(selected) + "    " + mark(zoneID(actToggle, t.ID), check),
		mark(zoneID(actDetails, t.ID), name.Render(truncate(t.Name, 48))),
		priorityStyle(t.Priority).Render(string(t.Priority)),
	}
	if t.Overdue(now) {
		parts = append(parts, errorStyle.Render("overdue"))
	}
	parts = append(parts,
		mark(zoneID(actEdit, t.ID), controlStyle.Render("[edit]")),
		mark(zoneID(actDeleteTodo, t.ID), deleteStyle.Render("[×]")),
	)
	return strings.Join(parts, " ")
}

func renderDetails(t todo.Todo, now time.Time) []string {
	indent := strings.Repeat(" ", 10)
	desc := t.Description
	if desc == "" {
		desc = mutedStyle.Render("No description")
	}
	due := t.DueDate
	if t.Overdue(now) {
		due = errorStyle.Render(due + " (overdue)")
	}
	var lines []string
	for i, l := range strings.Split(desc, "\n") {
		label := ""
		if i == 0 {
			label = "Description:"
		}
		lines = append(lines, indent+detailLabelStyle.Render(label)+l)
	}
	lines = append(lines,
		indent+detailLabelStyle.Render("Due Date:")+due,
		indent+detailLabelStyle.Render("Priority:")+priorityStyle(t.Priority).Render(string(t.Priority)),
	)
	return lines
}
