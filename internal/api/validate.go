package api

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxCategoryName   = 100
	maxIconLen        = 50
	minPasswordLen    = 6

	DefaultCategoryColor = "#3B82F6"
	DefaultCategoryIcon  = "📁"
)

var colorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Now is the clock used by due date validation.
var Now = time.Now

// ValidateDueDate rejects a due date strictly before today in the local
// time zone. Only the calendar day is compared.
func ValidateDueDate(due civil.Date, now time.Time) error {
	if !due.IsValid() {
		return &ValidationError{Field: "due_date", Reason: "is not a valid date"}
	}
	today := civil.DateOf(now.In(time.Local))
	if due.Before(today) {
		return &ValidationError{Field: "due_date", Reason: "cannot be in the past"}
	}
	return nil
}

// ValidateTaskInput checks a create request before it is sent.
func ValidateTaskInput(in TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if err := checkTaskText(in.Title, in.Description); err != nil {
		return err
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be one of low, medium, high, urgent"}
	}
	if in.DueDate != nil {
		return ValidateDueDate(*in.DueDate, Now())
	}
	return nil
}

// ValidateTaskUpdate checks an edit request before it is sent.
func ValidateTaskUpdate(up TaskUpdate) error {
	if up.Title != nil && strings.TrimSpace(*up.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	var title, desc string
	if up.Title != nil {
		title = *up.Title
	}
	if up.Description != nil {
		desc = *up.Description
	}
	if err := checkTaskText(title, desc); err != nil {
		return err
	}
	if up.Priority != nil && !up.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be one of low, medium, high, urgent"}
	}
	if up.Status != nil && !up.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be one of pending, in_progress, completed, cancelled"}
	}
	if up.DueDate != nil {
		return ValidateDueDate(*up.DueDate, Now())
	}
	return nil
}

func checkTaskText(title, desc string) error {
	if utf8.RuneCountInString(title) > maxTitleLen {
		return &ValidationError{Field: "title", Reason: "must be at most 200 characters"}
	}
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return &ValidationError{Field: "description", Reason: "must be at most 2000 characters"}
	}
	return nil
}

// NormalizeCategoryInput trims the name and fills the default color and icon.
func NormalizeCategoryInput(in CategoryInput) CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Color == "" {
		in.Color = DefaultCategoryColor
	}
	if in.Icon == "" {
		in.Icon = DefaultCategoryIcon
	}
	return in
}

func ValidateCategoryInput(in CategoryInput) error {
	if err := checkCategoryName(in.Name); err != nil {
		return err
	}
	if in.Color != "" && !colorRe.MatchString(in.Color) {
		return &ValidationError{Field: "color", Reason: "must be a hex color like #3B82F6"}
	}
	if utf8.RuneCountInString(in.Icon) > maxIconLen {
		return &ValidationError{Field: "icon", Reason: "must be at most 50 characters"}
	}
	return nil
}

func ValidateCategoryUpdate(up CategoryUpdate) error {
	in := CategoryInput{Name: "x"}
	if up.Name != nil {
		in.Name = strings.TrimSpace(*up.Name)
	}
	if up.Color != nil {
		in.Color = *up.Color
		if in.Color == "" {
			return &ValidationError{Field: "color", Reason: "must be a hex color like #3B82F6"}
		}
	}
	if up.Icon != nil {
		in.Icon = *up.Icon
	}
	return ValidateCategoryInput(in)
}

func checkCategoryName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if n > maxCategoryName {
		return &ValidationError{Field: "name", Reason: "must be at most 100 characters"}
	}
	return nil
}

// ValidateRegistration checks a sign-up request before it is sent.
func ValidateRegistration(reg Registration) error {
	if strings.TrimSpace(reg.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if len(reg.Password) < minPasswordLen {
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	return nil
}

// ParseDue reads a due date (YYYY-MM-DD) and an optional time (HH:MM or
// HH:MM:SS). Both empty means no due date; a time without a date is rejected.
func ParseDue(date, clock string) (*civil.Date, *civil.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		if clock != "" {
			return nil, nil, &ValidationError{Field: "due_time", Reason: "requires a due date"}
		}
		return nil, nil, nil
	}
	d, err := civil.ParseDate(date)
	if err != nil {
		return nil, nil, &ValidationError{Field: "due_date", Reason: "must be YYYY-MM-DD"}
	}
	if clock == "" {
		return &d, nil, nil
	}
	if len(clock) == len("15:04") {
		clock += ":00"
	}
	t, err := civil.ParseTime(clock)
	if err != nil {
		return nil, nil, &ValidationError{Field: "due_time", Reason: "must be HH:MM"}
	}
	return &d, &t, nil
}
