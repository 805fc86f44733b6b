package backend

import (
	"context"
	"net/http"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
)

func (c *Client) CreateDefect(ctx context.Context, req *construction.CreateDefectRequest) (*construction.Defect, error) {
	var defect construction.Defect
	if err := c.do(ctx, http.MethodPost, "/defect", nil, req, &defect, nil); err != nil {
		return nil, err
	}
	return &defect, nil
}

func (c *Client) DeleteDefect(ctx context.Context, id int64) error {
	_, err := c.ack(ctx, http.MethodDelete, idPath("/defect/%d", id), nil)
	return err
}

// ListMyDefects lists the defects assigned to the signed-in engineer.
func (c *Client) ListMyDefects(ctx context.Context, skip, limit int) ([]construction.Defect, error) {
	var defects []construction.Defect
	if err := c.do(ctx, http.MethodGet, "/defect/my-defects", c.page(skip, limit), nil, &defects, nil); err != nil {
		return nil, err
	}
	return defects, nil
}

func (c *Client) GetMyDefect(ctx context.Context, id int64) (*construction.Defect, error) {
	var defect construction.Defect
	if err := c.do(ctx, http.MethodGet, idPath("/defect/my-defects/%d", id), nil, nil, &defect, nil); err != nil {
		return nil, err
	}
	return &defect, nil
}

func (c *Client) RemoveDefectEngineer(ctx context.Context, defectID int64) (*Ack, error) {
	return c.ack(ctx, http.MethodDelete, idPath("/defect/%d/remove-engineer", defectID), nil)
}

func (c *Client) AssignDefectEngineer(ctx context.Context, defectID int64, req *construction.AssignEngineerRequest) (*Ack, error) {
	return c.ack(ctx, http.MethodPatch, idPath("/defect/defects/%d/assign-engineer", defectID), req)
}
