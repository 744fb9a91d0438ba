package dto

import apperrors "github.com/commutehq/corp-rides/pkg/errors"

// Envelope is the standard response wrapper for every endpoint
type Envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data,omitempty"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

// Page wraps a paginated listing
type Page struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// LoginResponse carries a session token plus the user record
type LoginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}
