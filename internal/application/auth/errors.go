package auth

import "lifelines-backend/internal/pkg/apperr"

var (
	ErrEmailPasswordRequired = &apperr.Error{Kind: apperr.KindValidation, Message: "Email and password are required"}
	ErrMissingFields         = &apperr.Error{Kind: apperr.KindValidation, Message: "Missing required fields"}
	ErrInvalidRole           = &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid role"}
	ErrEmailTaken            = &apperr.Error{Kind: apperr.KindConflict, Message: "Email already registered"}
	ErrInvalidEmail          = &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid email"}
	ErrInvalidCredentials    = &apperr.Error{Kind: apperr.KindAuthorization, Message: "Invalid email or password", Status: 401}
	ErrNotAuthenticated      = &apperr.Error{Kind: apperr.KindAuthorization, Message: "Not authenticated", Status: 401}
)
