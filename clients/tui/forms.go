package tui

import (
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dohr-michael/taskdeck/clients/tui/molecules"
	"github.com/dohr-michael/taskdeck/internal/api"
	"github.com/dohr-michael/taskdeck/internal/taskview"
)

// Form identifiers.
const (
	formEdit   = "edit"
	formCreate = "create"
	formFilter = "filter"
)

func priorityOptions() []molecules.Option {
	out := make([]molecules.Option, len(api.Priorities))
	for i, p := range api.Priorities {
		out[i] = molecules.Option{Label: string(p), Value: string(p)}
	}
	return out
}

func statusOptions(anyLabel string) []molecules.Option {
	var out []molecules.Option
	if anyLabel != "" {
		out = append(out, molecules.Option{Label: anyLabel})
	}
	for _, s := range api.Statuses {
		out = append(out, molecules.Option{Label: string(s), Value: string(s)})
	}
	return out
}

func categoryOptions(cats []api.Category, noneLabel string) []molecules.Option {
	out := []molecules.Option{{Label: noneLabel}}
	for _, c := range cats {
		out = append(out, molecules.Option{Label: c.Icon + " " + c.Name, Value: strconv.FormatInt(c.ID, 10)})
	}
	return out
}

func editFields(d *taskview.Draft, cats []api.Category) []molecules.Field {
	date, clock := formatDue(d.DueDate, d.DueTime)
	return []molecules.Field{
		molecules.TextField("title", "Title", d.Title, "required", 200),
		molecules.TextField("description", "Description", d.Description, "markdown", 2000),
		molecules.TextField("due_date", "Due date", date, "YYYY-MM-DD", 10),
		molecules.TextField("due_time", "Due time", clock, "HH:MM", 5),
		molecules.ChoiceField("priority", "Priority", priorityOptions(), string(d.Priority)),
		molecules.ChoiceField("status", "Status", statusOptions(""), string(d.Status)),
		molecules.ToggleField("important", "Important", d.Important),
		molecules.ToggleField("completed", "Completed", d.Completed),
		molecules.ChoiceField("category", "Category", editCategoryOptions(cats, d.CategoryID), idString(d.CategoryID)),
	}
}

// editCategoryOptions keeps the task's current category selectable when it
// is missing from cats, so saving never drops it by accident.
func editCategoryOptions(cats []api.Category, current *int64) []molecules.Option {
	out := categoryOptions(cats, "none")
	if current == nil {
		return out
	}
	for _, c := range cats {
		if c.ID == *current {
			return out
		}
	}
	id := idString(current)
	return append(out, molecules.Option{Label: "#" + id, Value: id})
}

// applyEdit copies the form values into d.
func applyEdit(d *taskview.Draft, v map[string]string) error {
	date, clock, err := api.ParseDue(v["due_date"], v["due_time"])
	if err != nil {
		return err
	}
	d.Title = strings.TrimSpace(v["title"])
	d.Description = v["description"]
	d.DueDate, d.DueTime = date, clock
	d.Priority = api.TaskPriority(v["priority"])
	d.Status = api.TaskStatus(v["status"])
	d.Important = v["important"] == "true"
	d.Completed = v["completed"] == "true"
	d.CategoryID = parseID(v["category"])
	return nil
}

func createFields(cats []api.Category, category *int64) []molecules.Field {
	return []molecules.Field{
		molecules.TextField("title", "Title", "", "required", 200),
		molecules.TextField("description", "Description", "", "markdown", 2000),
		molecules.TextField("due_date", "Due date", "", "YYYY-MM-DD", 10),
		molecules.TextField("due_time", "Due time", "", "HH:MM", 5),
		molecules.ChoiceField("priority", "Priority", priorityOptions(), string(api.PriorityMedium)),
		molecules.ToggleField("important", "Important", false),
		molecules.ChoiceField("category", "Category", categoryOptions(cats, "none"), idString(category)),
	}
}

func createInput(v map[string]string) (api.TaskInput, error) {
	date, clock, err := api.ParseDue(v["due_date"], v["due_time"])
	if err != nil {
		return api.TaskInput{}, err
	}
	return api.TaskInput{
		Title:       strings.TrimSpace(v["title"]),
		Description: v["description"],
		DueDate:     date,
		DueTime:     clock,
		Priority:    api.TaskPriority(v["priority"]),
		Important:   v["important"] == "true",
		CategoryID:  parseID(v["category"]),
	}, nil
}

func filterFields(f taskview.Filters, cats []api.Category) []molecules.Field {
	important := ""
	if f.Important != nil {
		important = strconv.FormatBool(*f.Important)
	}
	return []molecules.Field{
		molecules.TextField("q", "Search", f.Query, "title or description", 100),
		molecules.ChoiceField("status", "Status", statusOptions("any"), string(f.Status)),
		molecules.ChoiceField("important", "Important", []molecules.Option{
			{Label: "any"}, {Label: "yes", Value: "true"}, {Label: "no", Value: "false"},
		}, important),
		molecules.ChoiceField("category", "Category", categoryOptions(cats, "any"), idString(f.CategoryID)),
	}
}

func filtersFrom(v map[string]string) taskview.Filters {
	f := taskview.Filters{
		Query:      strings.TrimSpace(v["q"]),
		Status:     api.TaskStatus(v["status"]),
		CategoryID: parseID(v["category"]),
	}
	if b, err := strconv.ParseBool(v["important"]); err == nil {
		f.Important = &b
	}
	return f
}

func formatDue(date *civil.Date, clock *civil.Time) (string, string) {
	if date == nil {
		return "", ""
	}
	if clock == nil {
		return date.String(), ""
	}
	return date.String(), clock.String()[:5]
}

func parseID(s string) *int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func idString(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
