// Package todo holds the project/todo model and the update functions that
// change it. State is a value: every update returns a new State and leaves
// the receiver untouched, so a rejected update never leaves a partial edit.
package todo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type State struct {
	projects []Project
}

// NewState returns a state holding only the empty default project.
func NewState() State {
	return State{projects: []Project{{Name: DefaultProject, Todos: []Todo{}}}}
}

// FromProjects builds a state from stored projects. Projects whose names
// collide case-insensitively are merged into the first occurrence, todos
// without an ID get one and the default project is appended if absent.
func FromProjects(projects []Project) State {
	var s State
	index := make(map[string]int, len(projects))
	for _, p := range projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		todos := make([]Todo, 0, len(p.Todos))
		for _, t := range p.Todos {
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			if pr, err := ParsePriority(string(t.Priority)); err == nil {
				t.Priority = pr
			}
			todos = append(todos, t)
		}
		k := foldName(name)
		if i, ok := index[k]; ok {
			s.projects[i].Todos = append(s.projects[i].Todos, todos...)
			continue
		}
		if k == foldName(DefaultProject) {
			name = DefaultProject
		}
		index[k] = len(s.projects)
		s.projects = append(s.projects, Project{Name: name, Todos: todos})
	}
	if _, ok := index[foldName(DefaultProject)]; !ok {
		s.projects = append(s.projects, Project{Name: DefaultProject, Todos: []Todo{}})
	}
	return s
}

// Projects lists the default project first, then the others in storage
// order. The result is a copy.
func (s State) Projects() []Project {
	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		if p.IsDefault() {
			out = append(out, cloneProject(p))
		}
	}
	for _, p := range s.projects {
		if !p.IsDefault() {
			out = append(out, cloneProject(p))
		}
	}
	return out
}

// stored returns the projects in storage order, for persistence.
func (s State) stored() []Project {
	out := make([]Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = cloneProject(p)
	}
	return out
}

// Project looks a project up by exact name.
func (s State) Project(name string) (Project, bool) {
	i := s.projectIndex(name)
	if i < 0 {
		return Project{}, false
	}
	return cloneProject(s.projects[i]), true
}

// HasProject reports whether a project with a case-insensitively equal
// name exists.
func (s State) HasProject(name string) bool {
	k := foldName(name)
	for _, p := range s.projects {
		if foldName(p.Name) == k {
			return true
		}
	}
	return false
}

// FindTodo returns the todo with the given ID and the project holding it.
func (s State) FindTodo(id string) (string, Todo, bool) {
	for _, p := range s.projects {
		for _, t := range p.Todos {
			if t.ID == id {
				return p.Name, t, true
			}
		}
	}
	return "", Todo{}, false
}

// CreateProject appends an empty project. Names are trimmed and compared
// case-insensitively against existing projects.
func (s State) CreateProject(name string) (State, Project, error) {
	name = sanitize(name, false)
	if name == "" {
		return s, Project{}, ErrProjectNameRequired
	}
	if s.HasProject(name) {
		return s, Project{}, ErrDuplicateProject
	}
	next := s.clone()
	p := Project{Name: name, Todos: []Todo{}}
	next.projects = append(next.projects, p)
	return next, p, nil
}

// DeleteProject removes a project and all of its todos. Deleting the
// default project is a no-op.
func (s State) DeleteProject(name string) (State, error) {
	if name == DefaultProject {
		return s, nil
	}
	i := s.projectIndex(name)
	if i < 0 {
		return s, ErrProjectNotFound
	}
	next := s.clone()
	next.projects = append(next.projects[:i], next.projects[i+1:]...)
	return next, nil
}

// AddTodo appends a new incomplete todo to a project. The due date may not
// be earlier than today.
func (s State) AddTodo(project string, f Fields) (State, Todo, error) {
	i := s.projectIndex(project)
	if i < 0 {
		return s, Todo{}, ErrProjectNotFound
	}
	f, err := f.validate(now())
	if err != nil {
		return s, Todo{}, err
	}
	t := Todo{
		ID:          uuid.NewString(),
		Name:        f.Name,
		Description: f.Description,
		DueDate:     f.DueDate,
		Priority:    f.Priority,
	}
	next := s.clone()
	next.projects[i].Todos = append(next.projects[i].Todos, t)
	return next, t, nil
}

// EditTodo overwrites the fields of the todo with the given ID in place.
// Completion state and position are kept. A due date in the past is only
// accepted when it is the date the todo already had.
func (s State) EditTodo(project, id string, f Fields) (State, Todo, error) {
	i, j := s.todoIndex(project, id)
	if i < 0 {
		return s, Todo{}, ErrProjectNotFound
	}
	if j < 0 {
		return s, Todo{}, ErrTodoNotFound
	}
	cur := s.projects[i].Todos[j]
	var minDate time.Time
	if strings.TrimSpace(f.DueDate) != cur.DueDate {
		minDate = now()
	}
	f, err := f.validate(minDate)
	if err != nil {
		return s, Todo{}, err
	}
	next := s.clone()
	t := &next.projects[i].Todos[j]
	t.Name = f.Name
	t.Description = f.Description
	t.DueDate = f.DueDate
	t.Priority = f.Priority
	return next, *t, nil
}

// MoveTodo moves a todo to the end of another project.
func (s State) MoveTodo(from, id, to string) (State, error) {
	i, j := s.todoIndex(from, id)
	if i < 0 {
		return s, ErrProjectNotFound
	}
	if j < 0 {
		return s, ErrTodoNotFound
	}
	k := s.projectIndex(to)
	if k < 0 {
		return s, ErrProjectNotFound
	}
	if k == i {
		return s, nil
	}
	next := s.clone()
	t := next.projects[i].Todos[j]
	next.projects[i].Todos = append(next.projects[i].Todos[:j], next.projects[i].Todos[j+1:]...)
	next.projects[k].Todos = append(next.projects[k].Todos, t)
	return next, nil
}

// ToggleComplete flips the completed flag of a todo.
func (s State) ToggleComplete(project, id string) (State, Todo, error) {
	i, j := s.todoIndex(project, id)
	if i < 0 {
		return s, Todo{}, ErrProjectNotFound
	}
	if j < 0 {
		return s, Todo{}, ErrTodoNotFound
	}
	next := s.clone()
	t := &next.projects[i].Todos[j]
	t.Completed = !t.Completed
	return next, *t, nil
}

// DeleteTodo removes a todo from a project.
func (s State) DeleteTodo(project, id string) (State, error) {
	i, j := s.todoIndex(project, id)
	if i < 0 {
		return s, ErrProjectNotFound
	}
	if j < 0 {
		return s, ErrTodoNotFound
	}
	next := s.clone()
	todos := next.projects[i].Todos
	next.projects[i].Todos = append(todos[:j], todos[j+1:]...)
	return next, nil
}

func (s State) projectIndex(name string) int {
	for i, p := range s.projects {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (s State) todoIndex(project, id string) (int, int) {
	i := s.projectIndex(project)
	if i < 0 {
		return -1, -1
	}
	for j, t := range s.projects[i].Todos {
		if t.ID == id {
			return i, j
		}
	}
	return i, -1
}

func (s State) clone() State {
	return State{projects: s.stored()}
}

func cloneProject(p Project) Project {
	todos := make([]Todo, len(p.Todos))
	copy(todos, p.Todos)
	return Project{Name: p.Name, Todos: todos}
}

func foldName(name string) string {
	return strings.ToLower(sanitize(name, false))
}
