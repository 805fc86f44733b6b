package backend

import (
	"context"
	"net/http"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
)

func (c *Client) CreateProject(ctx context.Context, req *construction.CreateProjectRequest) (*construction.Project, error) {
	var project construction.Project
	if err := c.do(ctx, http.MethodPost, "/project", nil, req, &project, nil); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	_, err := c.ack(ctx, http.MethodDelete, idPath("/project/%d", id), nil)
	return err
}

// ListMyProjects lists the signed-in manager's projects. A non-positive limit
// uses the configured page size.
func (c *Client) ListMyProjects(ctx context.Context, skip, limit int) ([]construction.Project, error) {
	var projects []construction.Project
	if err := c.do(ctx, http.MethodGet, "/project/my-projects", c.page(skip, limit), nil, &projects, nil); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetMyProject(ctx context.Context, id int64) (*construction.Project, error) {
	var project construction.Project
	if err := c.do(ctx, http.MethodGet, idPath("/project/my-projects/%d", id), nil, nil, &project, nil); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) RemoveProjectManager(ctx context.Context, projectID int64) (*Ack, error) {
	return c.ack(ctx, http.MethodDelete, idPath("/project/%d/manager", projectID), nil)
}

func (c *Client) AssignProjectManager(ctx context.Context, projectID int64, req *construction.AssignManagerRequest) (*Ack, error) {
	return c.ack(ctx, http.MethodPatch, idPath("/project/%d/assign-manager", projectID), req)
}

func (c *Client) AddProjectEngineers(ctx context.Context, projectID int64, req *construction.EngineersRequest) (*Ack, error) {
	return c.ack(ctx, http.MethodPost, idPath("/project/%d/engineers", projectID), req)
}

// RemoveProjectEngineers sends the engineer list as a DELETE body.
func (c *Client) RemoveProjectEngineers(ctx context.Context, projectID int64, req *construction.EngineersRequest) (*Ack, error) {
	return c.ack(ctx, http.MethodDelete, idPath("/project/%d/engineers", projectID), req)
}
