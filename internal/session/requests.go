package session

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credentials are submitted to the login endpoint.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c Credentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, describe(err))
	}
	return nil
}

// AdminSignup creates a workspace and its first admin.
type AdminSignup struct {
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required,min=6"`
	WorkspaceName string `json:"workspace_name" validate:"required"`
	EngineKey     string `json:"google_api_key" validate:"required"`
}

func (s AdminSignup) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, describe(err))
	}
	return nil
}

// ResearcherSignup joins an existing workspace.
type ResearcherSignup struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	WorkspaceID string `json:"workspace_id" validate:"required"`
}

func (s ResearcherSignup) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, describe(err))
	}
	return nil
}

// Validate checks that every identity field is present and the role is known.
func (s Session) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSession, describe(err))
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
