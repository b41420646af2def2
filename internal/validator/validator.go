package validator

import (
	"github.com/go-playground/validator/v10"

	"skillbridge/internal/model"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Custom validators for the relationship vocabulary
	v.RegisterValidation("org_kind", validateOrgKind)
	v.RegisterValidation("org_role", validateOrgRole)
	v.RegisterValidation("partnership_type", validatePartnershipType)
	v.RegisterValidation("partnership_role", validatePartnershipRole)
	v.RegisterValidation("project_role", validateProjectRole)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func validateOrgKind(fl validator.FieldLevel) bool {
	return model.OrgKind(fl.Field().String()).IsValid()
}

func validateOrgRole(fl validator.FieldLevel) bool {
	return model.Role(fl.Field().String()).IsValid()
}

func validatePartnershipType(fl validator.FieldLevel) bool {
	return model.PartnershipType(fl.Field().String()).IsValid()
}

func validatePartnershipRole(fl validator.FieldLevel) bool {
	field := fl.Field().String()
	return field == "" || model.PartnershipRole(field).IsValid()
}

func validateProjectRole(fl validator.FieldLevel) bool {
	return model.ProjectRole(fl.Field().String()).IsValid()
}
