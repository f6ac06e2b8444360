package dto

type SendEmailInput struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}

type VerifyEmailInput struct {
	Email string `json:"email" form:"email" binding:"required,email"`
	Code  int    `json:"code" form:"code" binding:"required"`
}
