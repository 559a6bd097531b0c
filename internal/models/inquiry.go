// internal/models/inquiry.go
package models

import "time"

type InquiryPriority string

const (
	InquiryPriorityNormal InquiryPriority = "normal"
	InquiryPriorityHigh   InquiryPriority = "high"
)

type Inquiry struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"propertyId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Message     string    `json:"message"`
	SourceQuery string    `json:"sourceQuery,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
