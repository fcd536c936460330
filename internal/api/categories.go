package api

import (
	"context"
	"net/http"
)

// ListCategories returns every category of the current user.
func (c *Client) ListCategories(ctx context.Context) (*CategoryList, error) {
	var list CategoryList
	if err := c.do(ctx, http.MethodGet, c.routes.Categories, nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var cat Category
	if err := c.do(ctx, http.MethodGet, expand(c.routes.Category, id), nil, nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// CreateCategory validates in, fills the default color and icon, and creates it.
func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	in = NormalizeCategoryInput(in)
	if err := ValidateCategoryInput(in); err != nil {
		return nil, err
	}
	var cat Category
	if err := c.do(ctx, http.MethodPost, c.routes.Categories, nil, in, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, up CategoryUpdate) (*Category, error) {
	if err := ValidateCategoryUpdate(up); err != nil {
		return nil, err
	}
	var cat Category
	if err := c.do(ctx, http.MethodPut, expand(c.routes.Category, id), nil, up, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category. Its tasks are kept and lose the reference.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, expand(c.routes.Category, id), nil, nil, nil)
}

// CategoryTasks lists all tasks filed under a category.
func (c *Client) CategoryTasks(ctx context.Context, id int64) (*CategoryTasks, error) {
	var out CategoryTasks
	if err := c.do(ctx, http.MethodGet, expand(c.routes.CategoryTasks, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
