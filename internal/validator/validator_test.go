package validator_test

import (
	"testing"

	"skillbridge/internal/validator"

	"github.com/stretchr/testify/assert"
)

type vocabularyRequest struct {
	Kind            string `validate:"required,org_kind"`
	Role            string `validate:"required,org_role"`
	PartnershipType string `validate:"required,partnership_type"`
	PartnershipRole string `validate:"omitempty,partnership_role"`
	ProjectRole     string `validate:"required,project_role"`
}

func TestValidator_RelationshipVocabulary(t *testing.T) {
	v := validator.New()

	valid := vocabularyRequest{
		Kind:            "school",
		Role:            "intervenant",
		PartnershipType: "bilateral",
		PartnershipRole: "sponsor",
		ProjectRole:     "co_owner",
	}

	tests := []struct {
		name    string
		mutate  func(r *vocabularyRequest)
		isValid bool
	}{
		{name: "all_valid", mutate: func(r *vocabularyRequest) {}, isValid: true},
		{name: "empty_partnership_role_allowed", mutate: func(r *vocabularyRequest) { r.PartnershipRole = "" }, isValid: true},
		{name: "unknown_kind", mutate: func(r *vocabularyRequest) { r.Kind = "guild" }, isValid: false},
		{name: "unknown_role", mutate: func(r *vocabularyRequest) { r.Role = "janitor" }, isValid: false},
		{name: "unknown_partnership_type", mutate: func(r *vocabularyRequest) { r.PartnershipType = "federated" }, isValid: false},
		{name: "unknown_partnership_role", mutate: func(r *vocabularyRequest) { r.PartnershipRole = "patron" }, isValid: false},
		{name: "unknown_project_role", mutate: func(r *vocabularyRequest) { r.ProjectRole = "viewer" }, isValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := valid
			tt.mutate(&request)
			err := v.Validate(request)
			if tt.isValid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
