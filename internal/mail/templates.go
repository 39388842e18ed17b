package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DateLayout is how due dates appear in emails.
const DateLayout = "2006-01-02"

// AssignedData fills the task assigned notice.
type AssignedData struct {
	TaskTitle   string
	ProjectName string
	DueDate     *time.Time
}

// StatusChangedData fills the status change notice.
type StatusChangedData struct {
	TaskTitle   string
	ProjectName string
	OldStatus   string
	NewStatus   string
}

// DigestRow is one line of the overdue digest.
type DigestRow struct {
	Title       string
	ProjectName string
	DueDate     time.Time
	Priority    string
}

type assignedView struct {
	TaskTitle   string
	ProjectName string
	DueDate     string
}

// RenderAssigned builds the email sent when a task is assigned to someone.
func RenderAssigned(to string, data AssignedData) (Message, error) {
	view := assignedView{TaskTitle: data.TaskTitle, ProjectName: data.ProjectName}
	if data.DueDate != nil {
		view.DueDate = data.DueDate.UTC().Format(DateLayout)
	}
	return render(to, "Task Assigned: "+data.TaskTitle, "assigned.html", view)
}

// RenderStatusChanged builds the email sent when an assigned task changes status.
func RenderStatusChanged(to string, data StatusChangedData) (Message, error) {
	return render(to, "Task Status Changed: "+data.TaskTitle, "status_changed.html", data)
}

type digestRowView struct {
	Title       string
	ProjectName string
	DueDate     string
	Priority    string
}

// RenderDigest builds the daily overdue summary. rows must not be empty.
func RenderDigest(to string, rows []DigestRow) (Message, error) {
	if len(rows) == 0 {
		return Message{}, fmt.Errorf("digest for %s has no tasks", to)
	}
	views := make([]digestRowView, len(rows))
	for i, row := range rows {
		views[i] = digestRowView{
			Title:       row.Title,
			ProjectName: row.ProjectName,
			DueDate:     row.DueDate.UTC().Format(DateLayout),
			Priority:    row.Priority,
		}
	}
	return render(to, "Daily Summary: Overdue Tasks", "digest.html", views)
}

func render(to, subject, name string, data any) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
