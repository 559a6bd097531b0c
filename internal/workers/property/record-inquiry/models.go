// internal/workers/property/record-inquiry/models.go
package recordinquiry

import "realestate-workers/internal/models"

type Input struct {
	PropertyID  string                 `json:"propertyId"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone,omitempty"`
	Message     string                 `json:"message"`
	SourceQuery string                 `json:"sourceQuery,omitempty"`
	Priority    models.InquiryPriority `json:"priority,omitempty"`
}

type Output struct {
	InquiryID string                 `json:"inquiryId"`
	Status    string                 `json:"status"`
	Priority  models.InquiryPriority `json:"priority"`
	CreatedAt string                 `json:"createdAt"` // ISO 8601
}

const inquirySchema = `{
  "type": "object",
  "required": ["propertyId", "name", "email", "message"],
  "properties": {
    "propertyId":  {"type": "string", "minLength": 1, "maxLength": 64},
    "name":        {"type": "string", "minLength": 1, "maxLength": 200},
    "email":       {"type": "string", "format": "email", "maxLength": 254},
    "phone":       {"type": "string", "pattern": "^\\+?[0-9 ()-]{7,20}$"},
    "message":     {"type": "string", "minLength": 1, "maxLength": 2000},
    "sourceQuery": {"type": "string", "maxLength": 500},
    "priority":    {"type": "string", "enum": ["normal", "high"]}
  }
}`
