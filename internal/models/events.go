package models

// CheckboxEvent mirrors the change event sent by a category checkbox
type CheckboxEvent struct {
	Target CheckboxTarget `json:"target"`
}

// CheckboxTarget is the control that raised the event
type CheckboxTarget struct {
	Checked bool `json:"checked"`
}

// VisibilityRequest is the body of a programmatic visibility change
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}
