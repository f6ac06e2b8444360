package dto

import "anoa.com/handchatter/internal/entity"

type CheckIDQuery struct {
	ID string `form:"id"`
}

type CheckNicknameQuery struct {
	Nickname string `form:"nickname"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// SignupInput is bound from JSON for students and from multipart form data
// for tutors. Presence is checked by the service so precondition errors are
// reported in a fixed order.
type SignupInput struct {
	ID       string `json:"id" form:"id"`
	Nickname string `json:"nickname" form:"nickname"`
	Password string `json:"password" form:"password"`
	Email    string `json:"email" form:"email"`
}

type LoginInput struct {
	ID       string `json:"id" form:"id" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResult struct {
	Principal   entity.Principal
	Token       string
	SearchToken string
}

type EditProfileInput struct {
	Nickname    string `json:"nickname" form:"nickname" binding:"required"`
	Password    string `json:"password" form:"password"`
	Level       string `json:"level" form:"level"`
	Price       *int   `json:"price" form:"price"`
	DesVideo    string `json:"desVideo" form:"desVideo"`
	Description string `json:"description" form:"description"`
}

type ChangePasswordInput struct {
	Password    string `json:"password" form:"password"`
	NewPassword string `json:"newPassword" form:"newPassword" binding:"required,min=4"`
}

type DeleteAccountInput struct {
	ID       string `json:"id" form:"id"`
	Password string `json:"password" form:"password"`
}

type DeleteResult struct {
	SessionCleared bool
}

type SearchIDQuery struct {
	Email string `form:"email"`
}

type SearchPasswordQuery struct {
	ID    string `form:"id"`
	Email string `form:"email"`
}

type ResetPasswordInput struct {
	Token       string `json:"token" form:"token" binding:"required"`
	NewPassword string `json:"newPassword" form:"newPassword" binding:"required,min=4"`
}

type StudentInfo struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	Email      string `json:"email"`
	Provider   string `json:"provider"`
	ProfileImg string `json:"profile_img"`
	Authority  bool   `json:"authority"`
}

type TutorInfo struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	Email       string `json:"email"`
	Description string `json:"description"`
	Authority   bool   `json:"authority"`
	ProfileImg  string `json:"profile_img"`
	DesVideo    string `json:"des_video"`
	Price       int    `json:"price"`
}

func NewStudentInfo(a *entity.Account) StudentInfo {
	return StudentInfo{
		ID:         a.LoginID,
		Nickname:   a.Nickname,
		Email:      a.Email,
		Provider:   a.Provider,
		ProfileImg: a.ProfileImg,
		Authority:  a.Authority,
	}
}

func NewTutorInfo(a *entity.Account) TutorInfo {
	return TutorInfo{
		ID:          a.LoginID,
		Nickname:    a.Nickname,
		Email:       a.Email,
		Description: a.Description,
		Authority:   a.Authority,
		ProfileImg:  a.ProfileImg,
		DesVideo:    a.DesVideo,
		Price:       a.Price,
	}
}
