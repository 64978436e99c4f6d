package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/todos/internal/todo"
)

var csvHeader = []string{"ID", "Project", "Name", "Description", "Due Date", "Priority", "Completed"}

func ToCSV(projects []todo.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, p := range projects {
		for _, t := range p.Todos {
			row := []string{
				t.ID,
				p.Name,
				t.Name,
				t.Description,
				t.DueDate,
				string(t.Priority),
				strconv.FormatBool(t.Completed),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// FileName returns the export file name for the given date and extension.
func FileName(date, ext string) string {
	return fmt.Sprintf("todos-export-%s.%s", date, ext)
}
