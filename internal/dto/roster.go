package dto

import "github.com/noah-isme/sma-roster-api/internal/models"

// SaveCustomFieldsRequest replaces the whole custom field collection.
type SaveCustomFieldsRequest struct {
	CustomFields []models.FieldDefinition `json:"customFields" validate:"required"`
}

// StudentListQuery narrows roster listings and exports.
type StudentListQuery struct {
	Search string `form:"search"`
	Field  string `form:"field"`
	Value  string `form:"value"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// Filter converts the query into a service filter.
func (q StudentListQuery) Filter() models.StudentFilter {
	return models.StudentFilter{Search: q.Search, Field: q.Field, Value: q.Value}
}

// FormOpenQuery selects how an existing record is opened.
type FormOpenQuery struct {
	Mode string `form:"mode" validate:"omitempty,oneof=viewing editing"`
}

// AttachmentLinkQuery asks for a fresh download link.
type AttachmentLinkQuery struct {
	Key      string `form:"key" validate:"required"`
	Filename string `form:"filename"`
}
