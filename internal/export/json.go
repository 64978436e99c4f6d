package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/todos/internal/todo"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Todos      []jsonTodo `json:"todos"`
}

type jsonTodo struct {
	ID          string `json:"id"`
	Project     string `json:"project"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Completed   bool   `json:"completed"`
	Overdue     bool   `json:"overdue"`
}

func ToJSON(projects []todo.Project, path string) error {
	now := time.Now()
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
	}

	for _, p := range projects {
		for _, t := range p.Todos {
			export.Todos = append(export.Todos, jsonTodo{
				ID:          t.ID,
				Project:     p.Name,
				Name:        t.Name,
				Description: t.Description,
				DueDate:     t.DueDate,
				Priority:    string(t.Priority),
				Completed:   t.Completed,
				Overdue:     t.Overdue(now),
			})
		}
	}
	export.Count = len(export.Todos)

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
