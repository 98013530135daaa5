package web

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/validation"
)

const dateLayout = "2006-01-02"

// FormField is one bound form control: its current value, its inline
// error and a setter.
type FormField[T any] interface {
	Name() string
	Value() T
	Error() string
	Set(value T)
	SetError(msg string)
}

// Field is the FormField implementation used by every form.
type Field[T any] struct {
	name  string
	value T
	err   string
}

func NewField[T any](name string, value T) *Field[T] {
	return &Field[T]{name: name, value: value}
}

func (f *Field[T]) Name() string        { return f.name }
func (f *Field[T]) Value() T            { return f.value }
func (f *Field[T]) Error() string       { return f.err }
func (f *Field[T]) Set(value T)         { f.value = value }
func (f *Field[T]) SetError(msg string) { f.err = msg }

// Row is the template view of one form control.
type Row struct {
	Name    string
	Label   string
	Type    string
	Value   string
	Error   string
	Options []Choice
}

// Choice is an option of a select or checkbox group.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

func row[T any](f FormField[T], label, typ string, format func(T) string) Row {
	return Row{
		Name:  f.Name(),
		Label: label,
		Type:  typ,
		Value: format(f.Value()),
		Error: f.Error(),
	}
}

func selectRow[T ~string](f FormField[T], label string, options []Choice) Row {
	r := row(f, label, "select", func(v T) string { return string(v) })
	for _, o := range options {
		o.Selected = o.Value == r.Value
		r.Options = append(r.Options, o)
	}
	return r
}

func checkboxRow(f FormField[[]string], label string, options []Choice) Row {
	r := row(f, label, "checkboxes", func(v []string) string { return strings.Join(v, ",") })
	selected := map[string]bool{}
	for _, v := range f.Value() {
		selected[v] = true
	}
	for _, o := range options {
		o.Selected = selected[o.Value]
		r.Options = append(r.Options, o)
	}
	return r
}

func formatString(s string) string { return s }

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatHours(h *float64) string {
	if h == nil {
		return ""
	}
	return strconv.FormatFloat(*h, 'f', -1, 64)
}

func formatList(v []string) string {
	return strings.Join(v, ", ")
}

// taskForm holds the task editor's bound fields.
type taskForm struct {
	Title          *Field[string]
	Description    *Field[string]
	Status         *Field[models.Status]
	Priority       *Field[models.Priority]
	AssigneeIDs    *Field[[]string]
	StartDate      *Field[*time.Time]
	DueDate        *Field[*time.Time]
	Labels         *Field[[]string]
	EstimatedHours *Field[*float64]
}

func newTaskForm() *taskForm {
	return &taskForm{
		Title:          NewField("title", ""),
		Description:    NewField("description", ""),
		Status:         NewField("status", models.StatusTodo),
		Priority:       NewField("priority", models.PriorityMedium),
		AssigneeIDs:    NewField("assigneeIds", []string{}),
		StartDate:      NewField[*time.Time]("startDate", nil),
		DueDate:        NewField[*time.Time]("dueDate", nil),
		Labels:         NewField[[]string]("labels", nil),
		EstimatedHours: NewField[*float64]("estimatedHours", nil),
	}
}

func taskFormFromTask(t *models.Task) *taskForm {
	f := newTaskForm()
	f.Title.Set(t.Title)
	f.Description.Set(t.Description)
	f.Status.Set(t.Status)
	f.Priority.Set(t.Priority)
	f.AssigneeIDs.Set(t.AssigneeIDs())
	f.StartDate.Set(t.StartDate)
	f.DueDate.Set(t.DueDate)
	f.Labels.Set(t.Labels)
	f.EstimatedHours.Set(t.EstimatedHours)
	return f
}

// parseTaskForm binds submitted values. Values that cannot be parsed are
// reported on their field and left empty.
func parseTaskForm(values url.Values) *taskForm {
	f := newTaskForm()
	f.Title.Set(strings.TrimSpace(values.Get("title")))
	f.Description.Set(strings.TrimSpace(values.Get("description")))
	f.Status.Set(models.Status(values.Get("status")))
	f.Priority.Set(models.Priority(values.Get("priority")))

	assignees := []string{}
	for _, id := range values["assigneeIds"] {
		if id = strings.TrimSpace(id); id != "" {
			assignees = append(assignees, id)
		}
	}
	f.AssigneeIDs.Set(assignees)

	bindDate(f.StartDate, values.Get("startDate"))
	bindDate(f.DueDate, values.Get("dueDate"))

	var labels []string
	for _, l := range strings.Split(values.Get("labels"), ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	f.Labels.Set(labels)

	if raw := strings.TrimSpace(values.Get("estimatedHours")); raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			f.EstimatedHours.SetError("Estimated hours must be a number")
		} else {
			f.EstimatedHours.Set(&h)
		}
	}
	return f
}

func bindDate(f FormField[*time.Time], raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		f.SetError("Invalid date")
		return
	}
	f.Set(&t)
}

func (f *taskForm) fields() map[string]interface{ SetError(string) } {
	return map[string]interface{ SetError(string) }{
		"title":          f.Title,
		"description":    f.Description,
		"status":         f.Status,
		"priority":       f.Priority,
		"assigneeIds":    f.AssigneeIDs,
		"startDate":      f.StartDate,
		"dueDate":        f.DueDate,
		"labels":         f.Labels,
		"estimatedHours": f.EstimatedHours,
	}
}

func (f *taskForm) hasErrors() bool {
	return f.Title.Error() != "" || f.Description.Error() != "" ||
		f.Status.Error() != "" || f.Priority.Error() != "" ||
		f.AssigneeIDs.Error() != "" || f.StartDate.Error() != "" ||
		f.DueDate.Error() != "" || f.Labels.Error() != "" ||
		f.EstimatedHours.Error() != ""
}

// validate runs the schema and attaches messages to their fields. Binding
// errors already on a field are kept.
func (f *taskForm) validate(v *validation.Validator) bool {
	errs := v.ValidateTask(validation.TaskForm{
		Title:          f.Title.Value(),
		Description:    f.Description.Value(),
		Status:         string(f.Status.Value()),
		Priority:       string(f.Priority.Value()),
		AssigneeIDs:    f.AssigneeIDs.Value(),
		DueDate:        f.DueDate.Value(),
		StartDate:      f.StartDate.Value(),
		Labels:         f.Labels.Value(),
		EstimatedHours: f.EstimatedHours.Value(),
	})
	fields := f.fields()
	for name, msg := range errs {
		if fld, ok := fields[name]; ok {
			if e, ok := fld.(interface{ Error() string }); ok && e.Error() != "" {
				continue
			}
			fld.SetError(msg)
		}
	}
	return !f.hasErrors()
}

func (f *taskForm) createRequest() models.CreateTaskRequest {
	return models.CreateTaskRequest{
		Title:          f.Title.Value(),
		Description:    f.Description.Value(),
		Status:         f.Status.Value(),
		Priority:       f.Priority.Value(),
		AssigneeIDs:    f.AssigneeIDs.Value(),
		DueDate:        f.DueDate.Value(),
		StartDate:      f.StartDate.Value(),
		Labels:         f.Labels.Value(),
		EstimatedHours: f.EstimatedHours.Value(),
	}
}

// updateRequest sends every edited field; an empty description is omitted.
func (f *taskForm) updateRequest() models.UpdateTaskRequest {
	title := f.Title.Value()
	status := f.Status.Value()
	priority := f.Priority.Value()
	req := models.UpdateTaskRequest{
		Title:          &title,
		Status:         &status,
		Priority:       &priority,
		AssigneeIDs:    f.AssigneeIDs.Value(),
		DueDate:        f.DueDate.Value(),
		StartDate:      f.StartDate.Value(),
		Labels:         f.Labels.Value(),
		EstimatedHours: f.EstimatedHours.Value(),
	}
	if d := f.Description.Value(); d != "" {
		req.Description = &d
	}
	return req
}

// taskFormRows lays out the editor. users are the assignee choices.
func (f *taskForm) rows(users []models.User) map[string]Row {
	statuses := make([]Choice, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		statuses = append(statuses, Choice{Value: string(s), Label: s.Label()})
	}
	priorities := make([]Choice, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		priorities = append(priorities, Choice{Value: string(p), Label: p.Label()})
	}
	people := make([]Choice, 0, len(users))
	for _, u := range users {
		people = append(people, Choice{Value: u.ID, Label: u.Name})
	}

	return map[string]Row{
		"title":          row[string](f.Title, "Title", "text", formatString),
		"description":    row[string](f.Description, "Description", "textarea", formatString),
		"status":         selectRow[models.Status](f.Status, "Status", statuses),
		"priority":       selectRow[models.Priority](f.Priority, "Priority", priorities),
		"assigneeIds":    checkboxRow(f.AssigneeIDs, "Assignees", people),
		"startDate":      row[*time.Time](f.StartDate, "Start Date", "date", formatDate),
		"dueDate":        row[*time.Time](f.DueDate, "Due Date", "date", formatDate),
		"labels":         row[[]string](f.Labels, "Labels", "text", formatList),
		"estimatedHours": row[*float64](f.EstimatedHours, "Estimated Hours", "number", formatHours),
	}
}

// contractTypeForm is the HRM contract-type form.
type contractTypeForm struct {
	Code *Field[string]
	Name *Field[string]
}

func parseContractTypeForm(values url.Values) *contractTypeForm {
	return &contractTypeForm{
		Code: NewField("contractTypeCode", strings.TrimSpace(values.Get("contractTypeCode"))),
		Name: NewField("contractTypeName", strings.TrimSpace(values.Get("contractTypeName"))),
	}
}

func (f *contractTypeForm) validate(v *validation.Validator) bool {
	errs := v.ValidateContractType(validation.ContractTypeForm{
		ContractTypeCode: f.Code.Value(),
		ContractTypeName: f.Name.Value(),
	})
	f.Code.SetError(errs["contractTypeCode"])
	f.Name.SetError(errs["contractTypeName"])
	return len(errs) == 0
}

func (f *contractTypeForm) request() models.CreateContractTypeRequest {
	return models.CreateContractTypeRequest{
		ContractTypeCode: f.Code.Value(),
		ContractTypeName: f.Name.Value(),
	}
}

func (f *contractTypeForm) rows() map[string]Row {
	return map[string]Row{
		"contractTypeCode": row[string](f.Code, "Contract Type Code", "text", formatString),
		"contractTypeName": row[string](f.Name, "Contract Type Name", "text", formatString),
	}
}
