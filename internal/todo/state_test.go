package todo

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(t *testing.T, day string) {
	t.Helper()
	d, err := time.ParseInLocation(DateLayout, day, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	prev := now
	now = func() time.Time { return d.Add(10 * time.Hour) }
	t.Cleanup(func() { now = prev })
}

func mustAdd(t *testing.T, s State, project string, f Fields) (State, Todo) {
	t.Helper()
	next, td, err := s.AddTodo(project, f)
	if err != nil {
		t.Fatalf("add todo %q: %v", f.Name, err)
	}
	return next, td
}

func projectNames(s State) []string {
	var names []string
	for _, p := range s.Projects() {
		names = append(names, p.Name)
	}
	return names
}

func hasDefault(s State) bool {
	_, ok := s.Project(DefaultProject)
	return ok
}

// ============================================================
// Projects
// ============================================================

func TestNewStateHasDefault(t *testing.T) {
	s := NewState()
	ps := s.Projects()
	if len(ps) != 1 || ps[0].Name != DefaultProject {
		t.Fatalf("unexpected projects: %+v", ps)
	}
	if len(ps[0].Todos) != 0 {
		t.Fatal("default project should be empty")
	}
}

func TestCreateProject(t *testing.T) {
	s := NewState()
	s, p, err := s.CreateProject("  Work ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Work" {
		t.Fatalf("name should be trimmed, got %q", p.Name)
	}
	got := projectNames(s)
	if len(got) != 2 || got[0] != DefaultProject || got[1] != "Work" {
		t.Fatalf("projects = %v", got)
	}
}

func TestCreateProjectDuplicateCaseInsensitive(t *testing.T) {
	s, _, _ := NewState().CreateProject("Work")

	for _, name := range []string{"Work", "work", "WORK", " work ", "default"} {
		next, _, err := s.CreateProject(name)
		if !errors.Is(err, ErrDuplicateProject) {
			t.Fatalf("CreateProject(%q) err = %v, want ErrDuplicateProject", name, err)
		}
		if len(next.Projects()) != 2 {
			t.Fatalf("state changed after rejected %q", name)
		}
	}
}

func TestCreateProjectEmptyName(t *testing.T) {
	_, _, err := NewState().CreateProject("   ")
	if !errors.Is(err, ErrProjectNameRequired) {
		t.Fatalf("err = %v, want ErrProjectNameRequired", err)
	}
}

func TestCreateProjectLeavesReceiverUntouched(t *testing.T) {
	s := NewState()
	_, _, err := s.CreateProject("Work")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Projects()) != 1 {
		t.Fatal("receiver should not be modified")
	}
}

func TestDeleteProjectRemovesTodos(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, _, _ := NewState().CreateProject("Work")
	s, td := mustAdd(t, s, "Work", Fields{Name: "Report", DueDate: "2030-01-02"})

	s, err := s.DeleteProject("Work")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Project("Work"); ok {
		t.Fatal("project should be gone")
	}
	if _, _, ok := s.FindTodo(td.ID); ok {
		t.Fatal("todos of a deleted project should be gone")
	}
}

func TestDeleteDefaultProjectIsNoop(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, _ := mustAdd(t, NewState(), DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})

	next, err := s.DeleteProject(DefaultProject)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := next.Project(DefaultProject)
	if !ok || len(p.Todos) != 1 {
		t.Fatalf("default project should survive untouched: %+v", p)
	}
}

func TestDeleteMissingProject(t *testing.T) {
	_, err := NewState().DeleteProject("Nope")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestProjectsDefaultFirst(t *testing.T) {
	s := FromProjects([]Project{
		{Name: "B", Todos: []Todo{}},
		{Name: DefaultProject, Todos: []Todo{}},
		{Name: "A", Todos: []Todo{}},
	})
	got := projectNames(s)
	want := []string{DefaultProject, "B", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("projects = %v, want %v", got, want)
		}
	}
}

// ============================================================
// Todos
// ============================================================

func TestAddTodo(t *testing.T) {
	fixedClock(t, "2030-06-15")
	s, td := mustAdd(t, NewState(), DefaultProject, Fields{
		Name:        " Buy milk ",
		Description: "2 litres",
		DueDate:     "2030-06-15",
		Priority:    PriorityHigh,
	})
	if td.ID == "" {
		t.Fatal("todo should get an ID")
	}
	if td.Name != "Buy milk" || td.Completed || td.Priority != PriorityHigh {
		t.Fatalf("unexpected todo: %+v", td)
	}
	p, _ := s.Project(DefaultProject)
	if len(p.Todos) != 1 || p.Todos[0] != td {
		t.Fatalf("todo not stored: %+v", p.Todos)
	}
}

func TestAddTodoValidation(t *testing.T) {
	fixedClock(t, "2030-06-15")
	tests := []struct {
		name   string
		fields Fields
		want   error
	}{
		{"missing name", Fields{DueDate: "2030-06-15"}, ErrNameRequired},
		{"blank name", Fields{Name: "  ", DueDate: "2030-06-15"}, ErrNameRequired},
		{"missing date", Fields{Name: "x"}, ErrDueDateRequired},
		{"bad date", Fields{Name: "x", DueDate: "15/06/2030"}, ErrInvalidDueDate},
		{"past date", Fields{Name: "x", DueDate: "2030-06-14"}, ErrDueDateInPast},
		{"bad priority", Fields{Name: "x", DueDate: "2030-06-15", Priority: "urgent"}, ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			next, _, err := s.AddTodo(DefaultProject, tt.fields)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			p, _ := next.Project(DefaultProject)
			if len(p.Todos) != 0 {
				t.Fatal("rejected todo should not be stored")
			}
		})
	}
}

func TestAddTodoDefaultsPriority(t *testing.T) {
	fixedClock(t, "2030-06-15")
	_, td := mustAdd(t, NewState(), DefaultProject, Fields{Name: "x", DueDate: "2030-07-01"})
	if td.Priority != PriorityLow {
		t.Fatalf("priority = %q, want low", td.Priority)
	}
}

func TestAddTodoUnknownProject(t *testing.T) {
	_, _, err := NewState().AddTodo("Ghost", Fields{Name: "x", DueDate: "2099-01-01"})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestAddThenDeleteRestoresList(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, _ := mustAdd(t, NewState(), DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})
	s, _ = mustAdd(t, s, DefaultProject, Fields{Name: "B", DueDate: "2030-01-02"})
	before, _ := s.Project(DefaultProject)

	s, td := mustAdd(t, s, DefaultProject, Fields{Name: "C", DueDate: "2030-01-03"})
	s, err := s.DeleteTodo(DefaultProject, td.ID)
	if err != nil {
		t.Fatal(err)
	}
	after, _ := s.Project(DefaultProject)
	if len(after.Todos) != len(before.Todos) {
		t.Fatalf("len = %d, want %d", len(after.Todos), len(before.Todos))
	}
	for i := range before.Todos {
		if after.Todos[i] != before.Todos[i] {
			t.Fatalf("todo %d = %+v, want %+v", i, after.Todos[i], before.Todos[i])
		}
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, td := mustAdd(t, NewState(), DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})

	s, t1, err := s.ToggleComplete(DefaultProject, td.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !t1.Completed {
		t.Fatal("first toggle should complete")
	}
	s, t2, err := s.ToggleComplete(DefaultProject, td.ID)
	if err != nil {
		t.Fatal(err)
	}
	if t2.Completed != td.Completed {
		t.Fatal("second toggle should restore")
	}
	p, _ := s.Project(DefaultProject)
	if p.Todos[0].Completed {
		t.Fatal("stored todo should be incomplete")
	}
}

func TestEditTodoInPlace(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, a := mustAdd(t, NewState(), DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})
	s, b := mustAdd(t, s, DefaultProject, Fields{Name: "B", DueDate: "2030-01-01"})
	s, _, _ = s.ToggleComplete(DefaultProject, a.ID)

	s, edited, err := s.EditTodo(DefaultProject, a.ID, Fields{
		Name: "A2", Description: "d", DueDate: "2030-02-01", Priority: PriorityMedium,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !edited.Completed {
		t.Fatal("edit should keep completion state")
	}
	p, _ := s.Project(DefaultProject)
	if p.Todos[0].ID != a.ID || p.Todos[0].Name != "A2" || p.Todos[1].ID != b.ID {
		t.Fatalf("edit should keep position: %+v", p.Todos)
	}
}

func TestEditAfterDeleteTargetsSameTodo(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, a := mustAdd(t, NewState(), DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})
	s, b := mustAdd(t, s, DefaultProject, Fields{Name: "B", DueDate: "2030-01-01"})
	s, c := mustAdd(t, s, DefaultProject, Fields{Name: "C", DueDate: "2030-01-01"})

	// Editing C was started; A is deleted before the edit is submitted.
	s, err := s.DeleteTodo(DefaultProject, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	s, _, err = s.EditTodo(DefaultProject, c.ID, Fields{Name: "C2", DueDate: "2030-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := s.Project(DefaultProject)
	if p.Todos[0].ID != b.ID || p.Todos[0].Name != "B" {
		t.Fatalf("B should be untouched: %+v", p.Todos[0])
	}
	if p.Todos[1].ID != c.ID || p.Todos[1].Name != "C2" {
		t.Fatalf("C should be edited: %+v", p.Todos[1])
	}
}

func TestEditDeletedTodo(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, a := mustAdd(t, NewState(), DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})
	s, _ = s.DeleteTodo(DefaultProject, a.ID)

	_, _, err := s.EditTodo(DefaultProject, a.ID, Fields{Name: "A2", DueDate: "2030-01-01"})
	if !errors.Is(err, ErrTodoNotFound) {
		t.Fatalf("err = %v, want ErrTodoNotFound", err)
	}
}

func TestEditKeepsPastDueDate(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, a := mustAdd(t, NewState(), DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})

	fixedClock(t, "2030-03-01")
	if _, _, err := s.EditTodo(DefaultProject, a.ID, Fields{Name: "renamed", DueDate: "2030-01-01"}); err != nil {
		t.Fatalf("unchanged past date should be accepted: %v", err)
	}
	_, _, err := s.EditTodo(DefaultProject, a.ID, Fields{Name: "renamed", DueDate: "2030-02-01"})
	if !errors.Is(err, ErrDueDateInPast) {
		t.Fatalf("err = %v, want ErrDueDateInPast", err)
	}
}

func TestMoveTodo(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, _, _ := NewState().CreateProject("Work")
	s, a := mustAdd(t, s, DefaultProject, Fields{Name: "A", DueDate: "2030-01-01"})

	s, err := s.MoveTodo(DefaultProject, a.ID, "Work")
	if err != nil {
		t.Fatal(err)
	}
	project, got, ok := s.FindTodo(a.ID)
	if !ok || project != "Work" || got != a {
		t.Fatalf("todo not moved: %q %+v", project, got)
	}
	def, _ := s.Project(DefaultProject)
	if len(def.Todos) != 0 {
		t.Fatal("source project should be empty")
	}
}

func TestDefaultAlwaysPresent(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s := NewState()
	steps := []func(State) State{
		func(s State) State { s, _, _ = s.CreateProject("Work"); return s },
		func(s State) State { s, _, _ = s.AddTodo(DefaultProject, Fields{Name: "a", DueDate: "2030-01-01"}); return s },
		func(s State) State { s, _ = s.DeleteProject(DefaultProject); return s },
		func(s State) State {
			p, _ := s.Project(DefaultProject)
			if len(p.Todos) > 0 {
				s, _ = s.DeleteTodo(DefaultProject, p.Todos[0].ID)
			}
			return s
		},
		func(s State) State { s, _ = s.DeleteProject("Work"); return s },
	}
	for i, step := range steps {
		s = step(s)
		if !hasDefault(s) {
			t.Fatalf("default project missing after step %d", i)
		}
	}
}

func TestScenario(t *testing.T) {
	s := NewState()

	s, td, err := s.AddTodo(DefaultProject, Fields{Name: "Buy milk", DueDate: "2099-01-01", Priority: PriorityLow})
	if err != nil {
		t.Fatal(err)
	}
	def, _ := s.Project(DefaultProject)
	if len(def.Todos) != 1 || def.Todos[0].Completed {
		t.Fatalf("unexpected default todos: %+v", def.Todos)
	}

	s, _, err = s.ToggleComplete(DefaultProject, td.ID)
	if err != nil {
		t.Fatal(err)
	}
	def, _ = s.Project(DefaultProject)
	if !def.Todos[0].Completed {
		t.Fatal("todo should be completed")
	}

	s, _, err = s.CreateProject("Work")
	if err != nil {
		t.Fatal(err)
	}
	names := projectNames(s)
	if len(names) != 2 || names[0] != DefaultProject || names[1] != "Work" {
		t.Fatalf("projects = %v", names)
	}
	work, _ := s.Project("Work")
	if len(work.Todos) != 0 {
		t.Fatal("Work should be empty")
	}

	next, _, err := s.CreateProject("work")
	if !errors.Is(err, ErrDuplicateProject) {
		t.Fatalf("err = %v, want ErrDuplicateProject", err)
	}
	if got := projectNames(next); len(got) != 2 {
		t.Fatalf("projects changed: %v", got)
	}
}

// ============================================================
// Model helpers
// ============================================================

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
		err  bool
	}{
		{"", PriorityLow, false},
		{"low", PriorityLow, false},
		{"Medium", PriorityMedium, false},
		{" HIGH ", PriorityHigh, false},
		{"urgent", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestOverdue(t *testing.T) {
	day := time.Date(2030, 5, 10, 12, 0, 0, 0, time.Local)
	tests := []struct {
		td   Todo
		want bool
	}{
		{Todo{DueDate: "2030-05-09"}, true},
		{Todo{DueDate: "2030-05-10"}, false},
		{Todo{DueDate: "2030-05-11"}, false},
		{Todo{DueDate: "2030-05-09", Completed: true}, false},
		{Todo{DueDate: "garbage"}, false},
	}
	for _, tt := range tests {
		if got := tt.td.Overdue(day); got != tt.want {
			t.Errorf("Overdue(%+v) = %v, want %v", tt.td, got, tt.want)
		}
	}
}

func TestProjectLabel(t *testing.T) {
	if (Project{Name: DefaultProject}).Label() != "To Do (Default)" {
		t.Fatal("default label")
	}
	if (Project{Name: "Work"}).Label() != "Work" {
		t.Fatal("plain label")
	}
}

func TestControlCharactersStripped(t *testing.T) {
	fixedClock(t, "2030-01-01")
	s, p, err := NewState().CreateProject("Wo\x1b[31mrk")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Wo[31mrk" {
		t.Fatalf("project name = %q", p.Name)
	}
	_, td := mustAdd(t, s, DefaultProject, Fields{
		Name:        "\tBuy\x07 milk ",
		Description: "two\nlines\x1b",
		DueDate:     "2030-01-02",
	})
	if td.Name != "Buy milk" {
		t.Fatalf("name = %q", td.Name)
	}
	if td.Description != "two\nlines" {
		t.Fatalf("description = %q", td.Description)
	}
}

func TestControlOnlyNameRejected(t *testing.T) {
	if _, _, err := NewState().CreateProject("\x1b\x07"); !errors.Is(err, ErrProjectNameRequired) {
		t.Fatalf("err = %v, want ErrProjectNameRequired", err)
	}
}
