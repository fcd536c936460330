package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

// TaskPriority is the urgency bucket of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Priorities lists every priority from least to most urgent.
var Priorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Task mirrors a task owned by the remote API.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     *civil.Date  `json:"due_date"`
	DueTime     *civil.Time  `json:"due_time"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	Important   bool         `json:"important"`
	Completed   bool         `json:"is_completed"`
	Overdue     bool         `json:"is_overdue"`
	UserID      int64        `json:"user_id,omitempty"`
	CategoryID  *int64       `json:"category_id"`
	CreatedAt   Timestamp    `json:"created_at"`
	UpdatedAt   Timestamp    `json:"updated_at"`
	CompletedAt *Timestamp   `json:"completed_at"`
}

// TaskPage is one page of the filtered task listing.
type TaskPage struct {
	Tasks      []Task `json:"tasks"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	HasNext    bool   `json:"has_next"`
	HasPrev    bool   `json:"has_prev"`
}

// TaskQuery selects a page of tasks. Zero values are omitted from the request.
type TaskQuery struct {
	Page       int
	Limit      int
	Query      string
	Status     TaskStatus
	Important  *bool
	CategoryID *int64
	// Sort is "field:asc" or "field:desc".
	Sort string
	// PriorityOrder asks the server to order by its priority queue instead of Sort.
	PriorityOrder bool
}

// Values encodes the query string.
func (q TaskQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Important != nil {
		v.Set("important", strconv.FormatBool(*q.Important))
	}
	if q.CategoryID != nil {
		v.Set("category_id", strconv.FormatInt(*q.CategoryID, 10))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.PriorityOrder {
		v.Set("use_priority_queue", "true")
	}
	return v
}

// TaskInput is the body of a create request.
type TaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     *civil.Date  `json:"due_date,omitempty"`
	DueTime     *civil.Time  `json:"due_time,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	Important   bool         `json:"important"`
	Completed   bool         `json:"is_completed"`
	CategoryID  *int64       `json:"category_id,omitempty"`
}

// Keys of the task fields an update can clear.
const (
	FieldDueDate    = "due_date"
	FieldDueTime    = "due_time"
	FieldCategoryID = "category_id"
)

// TaskUpdate is the body of an edit request. Nil fields are left unchanged,
// except the keys named in Clear, which are sent as null.
type TaskUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	DueDate     *civil.Date   `json:"due_date,omitempty"`
	DueTime     *civil.Time   `json:"due_time,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	Important   *bool         `json:"important,omitempty"`
	Completed   *bool         `json:"is_completed,omitempty"`
	CategoryID  *int64        `json:"category_id,omitempty"`

	Clear []string `json:"-"`
}

func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	type plain TaskUpdate
	data, err := json.Marshal(plain(u))
	if err != nil || len(u.Clear) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, key := range u.Clear {
		if _, ok := fields[key]; !ok {
			fields[key] = json.RawMessage("null")
		}
	}
	return json.Marshal(fields)
}

// Category groups tasks. TaskCount is derived by the server.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	UserID    int64     `json:"user_id,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
	TaskCount int       `json:"task_count"`
}

// CategoryList is the category index response.
type CategoryList struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

// CategoryTasks is the response of the per-category task listing.
type CategoryTasks struct {
	Category Category `json:"category"`
	Tasks    []Task   `json:"tasks"`
	Total    int      `json:"total"`
}

// CategoryInput creates a category.
type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// CategoryUpdate edits a category. Nil fields are left unchanged.
type CategoryUpdate struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// User is the authenticated account.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials log a user in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration creates an account.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// ProfileUpdate edits the current user. CurrentPassword is always required.
type ProfileUpdate struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Password        *string `json:"password,omitempty"`
	CurrentPassword string  `json:"current_password"`
}

// Notification is a server-generated event about one of the user's tasks.
type Notification struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt Timestamp `json:"created_at"`
	TaskTitle string    `json:"task_title,omitempty"`
}

// NotificationList is one page of notifications plus the global unread count.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}

// NotificationQuery selects a page of notifications.
type NotificationQuery struct {
	Page   int
	Limit  int
	IsRead *bool
}

// Values encodes the query string.
func (q NotificationQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.IsRead != nil {
		v.Set("is_read", strconv.FormatBool(*q.IsRead))
	}
	return v
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO form some servers
// emit; zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp: expected string, got %s", s)
	}
	s = s[1 : len(s)-1]
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}
