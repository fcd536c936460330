package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListTasks fetches one filtered page of tasks.
func (c *Client) ListTasks(ctx context.Context, q TaskQuery) (*TaskPage, error) {
	var page TaskPage
	if err := c.do(ctx, http.MethodGet, c.routes.ListTasks, q.Values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id int64) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, expand(c.routes.GetTask, id), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask validates in and creates the task.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*Task, error) {
	if err := ValidateTaskInput(in); err != nil {
		return nil, err
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, c.routes.CreateTask, nil, in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (c *Client) UpdateTask(ctx context.Context, id int64, up TaskUpdate) (*Task, error) {
	if err := ValidateTaskUpdate(up); err != nil {
		return nil, err
	}
	var task Task
	if err := c.do(ctx, http.MethodPut, expand(c.routes.UpdateTask, id), nil, up, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, expand(c.routes.DeleteTask, id), nil, nil, nil)
}

// PriorityTasks returns up to limit open tasks in priority order.
func (c *Client) PriorityTasks(ctx context.Context, limit int) ([]Task, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, c.routes.PriorityTasks, q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpcomingTasks returns up to limit open tasks due within days, soonest first.
func (c *Client) UpcomingTasks(ctx context.Context, limit, days int) ([]Task, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if days > 0 {
		q.Set("days_threshold", strconv.Itoa(days))
	}
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, c.routes.UpcomingTasks, q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
