package service

import (
	"net/http"

	"anoa.com/handchatter/pkg/apperror"
)

var (
	ErrBlankInput             = apperror.New(http.StatusBadRequest, "please fill in the blank", apperror.ErrBadRequest)
	ErrDuplicateCheckRequired = apperror.New(http.StatusBadRequest, "please check the id and nickname for duplicates first", apperror.ErrBadRequest)
	ErrEmailNotVerified       = apperror.New(http.StatusBadRequest, "please verify your email first", apperror.ErrBadRequest)
	ErrMissingFields          = apperror.New(http.StatusBadRequest, "please fill in all required fields", apperror.ErrInvalidInput)
	ErrInvalidEmail           = apperror.New(http.StatusBadRequest, "invalid email address", apperror.ErrInvalidInput)
	ErrDocumentRequired       = apperror.New(http.StatusBadRequest, "a credential document is required for tutors", apperror.ErrInvalidInput)
	ErrAccountNotFound        = apperror.New(http.StatusBadRequest, "account does not exist", apperror.ErrNotFound)
	ErrPasswordMismatch       = apperror.New(http.StatusBadRequest, "password does not match", apperror.ErrInvalidCredential)
	ErrIDMismatch             = apperror.New(http.StatusBadRequest, "please enter your id correctly", apperror.ErrBadRequest)
	ErrNicknameTaken          = apperror.New(http.StatusConflict, "nickname is already in use", apperror.ErrConflict)
	ErrAccountTaken           = apperror.New(http.StatusConflict, "id or nickname is already in use", apperror.ErrConflict)
	ErrResetTokenInvalid      = apperror.New(http.StatusBadRequest, "password reset link is invalid or expired", apperror.ErrNotFound)
)
