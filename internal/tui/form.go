package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/sadopc/todos/internal/todo"
)

// newProjectOption is the project selector value that asks for a new
// project name instead of picking an existing one.
const newProjectOption = "\x00new"

type formMode int

const (
	formClosed formMode = iota
	formCreate
	formEdit
)

// todoForm is the add/edit dialog. It captures the fields as typed and
// applies them to a State snapshot when submitted.
type todoForm struct {
	mode     formMode
	editID   string
	editFrom string // project holding the todo being edited
	origDue  string
	minDate  time.Time
	state    todo.State
	err      string
	form     *huh.Form

	// Form field pointers (survive value copies)
	name        *string
	description *string
	dueDate     *string
	priority    *string
	project     *string
	newProject  *string
}

func newTodoForm() todoForm {
	var name, desc, due, prio, proj, newProj string
	return todoForm{
		name:        &name,
		description: &desc,
		dueDate:     &due,
		priority:    &prio,
		project:     &proj,
		newProject:  &newProj,
	}
}

func (f todoForm) isOpen() bool {
	return f.mode != formClosed && f.form != nil
}

// openCreate resets the fields and opens the form for a new todo in project.
func (f todoForm) openCreate(s todo.State, project string, now time.Time) (todoForm, tea.Cmd) {
	if _, ok := s.Project(project); !ok {
		project = todo.DefaultProject
	}
	*f.name = ""
	*f.description = ""
	*f.dueDate = ""
	*f.priority = string(todo.PriorityLow)
	*f.project = project
	*f.newProject = ""

	f.mode = formCreate
	f.editID = ""
	f.editFrom = ""
	f.origDue = ""
	return f.open(s, now)
}

// openEdit fills the fields from the todo with the given ID.
func (f todoForm) openEdit(s todo.State, id string, now time.Time) (todoForm, tea.Cmd, bool) {
	project, t, ok := s.FindTodo(id)
	if !ok {
		return f, nil, false
	}
	*f.name = t.Name
	*f.description = t.Description
	*f.dueDate = t.DueDate
	*f.priority = string(t.Priority)
	*f.project = project
	*f.newProject = ""

	f.mode = formEdit
	f.editID = id
	f.editFrom = project
	f.origDue = t.DueDate
	f, cmd := f.open(s, now)
	return f, cmd, true
}

func (f todoForm) open(s todo.State, now time.Time) (todoForm, tea.Cmd) {
	f.state = s
	f.minDate = now
	f.err = ""
	f.form = f.build()
	return f, f.form.Init()
}

// reopen rebuilds the form after a failed submit, keeping what was typed.
func (f todoForm) reopen(err error) (todoForm, tea.Cmd) {
	f.err = err.Error()
	f.form = f.build()
	return f, f.form.Init()
}

func (f todoForm) cancel() todoForm {
	f.mode = formClosed
	f.form = nil
	f.err = ""
	f.editID = ""
	f.editFrom = ""
	return f
}

func (f todoForm) title() string {
	if f.mode == formEdit {
		return "Edit Todo"
	}
	return "New Todo"
}

func (f todoForm) fields() todo.Fields {
	return todo.Fields{
		Name:        *f.name,
		Description: *f.description,
		DueDate:     *f.dueDate,
		Priority:    todo.Priority(*f.priority),
	}
}

// submit applies the captured fields to s. A new project is created first
// when one was asked for; an edit whose project changed moves the todo.
// On error s is returned unchanged.
func (f todoForm) submit(s todo.State) (todo.State, string, todo.Todo, error) {
	next := s
	target := *f.project
	if target == newProjectOption {
		var p todo.Project
		var err error
		next, p, err = next.CreateProject(*f.newProject)
		if err != nil {
			return s, "", todo.Todo{}, err
		}
		target = p.Name
	}

	var t todo.Todo
	var err error
	switch f.mode {
	case formCreate:
		next, t, err = next.AddTodo(target, f.fields())
	case formEdit:
		next, t, err = next.EditTodo(f.editFrom, f.editID, f.fields())
		if err == nil && target != f.editFrom {
			next, err = next.MoveTodo(f.editFrom, f.editID, target)
		}
	default:
		err = fmt.Errorf("form is not open")
	}
	if err != nil {
		return s, "", todo.Todo{}, err
	}
	return next, target, t, nil
}

func (f todoForm) validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return todo.ErrNameRequired
	}
	return nil
}

func (f todoForm) validateDueDate(s string) error {
	minDate := f.minDate
	if f.mode == formEdit && strings.TrimSpace(s) == f.origDue {
		minDate = time.Time{}
	}
	return todo.ValidateDueDate(s, minDate)
}

func (f todoForm) validateNewProject(s string) error {
	if *f.project != newProjectOption {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return todo.ErrProjectNameRequired
	}
	if f.state.HasProject(s) {
		return todo.ErrDuplicateProject
	}
	return nil
}

func (f todoForm) projectOptions() []huh.Option[string] {
	opts := []huh.Option[string]{
		huh.NewOption("To Do (Default)", todo.DefaultProject),
		huh.NewOption("+ Add New Project", newProjectOption),
	}
	for _, p := range f.state.Projects() {
		if p.IsDefault() {
			continue
		}
		opts = append(opts, huh.NewOption(p.Name, p.Name))
	}
	return opts
}

func (f todoForm) build() *huh.Form {
	prioOptions := make([]huh.Option[string], len(todo.Priorities))
	for i, p := range todo.Priorities {
		prioOptions[i] = huh.NewOption(string(p), string(p))
	}
	earliest := f.minDate.Format(todo.DateLayout)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(f.name).Validate(f.validateName),
			huh.NewText().Title("Description").Lines(3).Value(f.description),
			huh.NewInput().
				Title("Due Date").
				Description("YYYY-MM-DD, " + earliest + " or later").
				Placeholder(earliest).
				Value(f.dueDate).
				Validate(f.validateDueDate),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(f.priority),
			huh.NewSelect[string]().Title("Project").Options(f.projectOptions()...).Value(f.project),
		),
		huh.NewGroup(
			huh.NewInput().Title("New Project Name").Value(f.newProject).Validate(f.validateNewProject),
		).WithHideFunc(func() bool { return *f.project != newProjectOption }),
	).WithShowHelp(true).WithShowErrors(true)
}
