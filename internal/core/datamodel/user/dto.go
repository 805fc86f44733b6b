package user

import (
	errors "github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/internal/core/common/validation"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	CompanyID *int64 `json:"company_id,omitempty"`
}

func (r *RegisterRequest) Validate() error {
	roles := make([]string, len(Roles))
	for i, role := range Roles {
		roles[i] = string(role)
	}

	validator := validation.NewValidator()
	validator.Field("username", r.Username).Required().MaxLength(64)
	validator.Field("email", r.Email).Required().Email()
	validator.Field("password", r.Password).Required().MinLength(6)
	validator.Field("role", string(r.Role)).Required().OneOf(roles, errors.ErrCodeInvalidRole)
	validator.Field("company_id", r.CompanyID).PositiveID()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
