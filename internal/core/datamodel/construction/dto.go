package construction

import (
	"github.com/frahmantamala/construction-dashboard/internal/core/common/validation"
)

type CreateCompanyRequest struct {
	Name string `json:"name"`
}

func (r *CreateCompanyRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", r.Name).Required().MaxLength(255)
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type AddUserRequest struct {
	UserID int64 `json:"user_id"`
}

func (r *AddUserRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("user_id", r.UserID).Required().PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	CompanyID   int64   `json:"company_id"`
	EngineerIDs []int64 `json:"engineer_ids"`
}

func (r *CreateProjectRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", r.Name).Required().MaxLength(255)
	validator.Field("company_id", r.CompanyID).Required().PositiveID()
	validator.Field("engineer_ids", r.EngineerIDs).PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type AssignManagerRequest struct {
	ManagerID int64 `json:"manager_id"`
}

func (r *AssignManagerRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("manager_id", r.ManagerID).Required().PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type EngineersRequest struct {
	EngineerIDs []int64 `json:"engineer_ids"`
}

func (r *EngineersRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("engineer_ids", r.EngineerIDs).Required().PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CreateDefectRequest struct {
	Name      string `json:"name"`
	ProjectID int64  `json:"project_id"`
}

func (r *CreateDefectRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", r.Name).Required().MaxLength(255)
	validator.Field("project_id", r.ProjectID).Required().PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type AssignEngineerRequest struct {
	EngineerID int64 `json:"engineer_id"`
}

func (r *AssignEngineerRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("engineer_id", r.EngineerID).Required().PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
