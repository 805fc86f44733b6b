package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
)

// Ack is the acknowledgement body of membership and assignment calls. Fields
// the backend leaves out stay zero.
type Ack struct {
	Message   string `json:"message"`
	UserID    int64  `json:"user_id,omitempty"`
	CompanyID int64  `json:"company_id,omitempty"`
}

func (c *Client) ack(ctx context.Context, method, path string, body interface{}) (*Ack, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, nil, body, &raw, nil); err != nil {
		return nil, err
	}
	var a Ack
	_ = json.Unmarshal(raw, &a)
	return &a, nil
}

func (c *Client) CreateCompany(ctx context.Context, req *construction.CreateCompanyRequest) (*construction.Company, error) {
	var company construction.Company
	if err := c.do(ctx, http.MethodPost, "/company/create", nil, req, &company, nil); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *Client) DeleteCompany(ctx context.Context, id int64) error {
	_, err := c.ack(ctx, http.MethodDelete, idPath("/company/%d", id), nil)
	return err
}

func (c *Client) AddUserToCompany(ctx context.Context, companyID int64, req *construction.AddUserRequest) (*Ack, error) {
	return c.ack(ctx, http.MethodPost, idPath("/company/%d/users", companyID), req)
}

func (c *Client) RemoveUserFromCompany(ctx context.Context, companyID, userID int64) (*Ack, error) {
	return c.ack(ctx, http.MethodDelete, idPath("/company/%d/users/%d", companyID, userID), nil)
}

// GetCompany fetches one company's full detail.
func (c *Client) GetCompany(ctx context.Context, id int64) (*construction.Company, error) {
	q := url.Values{}
	q.Set("company_id", strconv.FormatInt(id, 10))

	var company construction.Company
	if err := c.do(ctx, http.MethodGet, "/company/my-companies", q, nil, &company, nil); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *Client) ListCompanies(ctx context.Context) ([]construction.CompanySummary, error) {
	var companies []construction.CompanySummary
	if err := c.do(ctx, http.MethodGet, "/company/all", nil, nil, &companies, nil); err != nil {
		return nil, err
	}
	return companies, nil
}
