package entity

import (
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor
}

const (
	ProviderLocal = "local"
	ProviderKakao = "kakao"
)

// DefaultProfileImg is assigned to accounts that never uploaded an image.
const DefaultProfileImg = "./uploads/default.jpg"

// Account holds both students and tutors. LoginID and Nickname are unique
// across roles; tutor-only columns stay zero for students.
type Account struct {
	Idx           uint      `gorm:"primaryKey" json:"idx"`
	Role          Role      `gorm:"size:10;index;not null" json:"role"`
	LoginID       string    `gorm:"size:50;uniqueIndex;not null" json:"id"`
	Nickname      string    `gorm:"size:50;uniqueIndex;not null" json:"nickname"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	Email         string    `gorm:"size:100;index;not null" json:"email"`
	Provider      string    `gorm:"size:20;not null;default:local;uniqueIndex:idx_accounts_provider_id" json:"-"`
	ProviderID    *string   `gorm:"size:100;uniqueIndex:idx_accounts_provider_id" json:"-"`
	ProfileImg    string    `gorm:"type:text;not null;default:./uploads/default.jpg" json:"profile_img"`
	Authority     bool      `gorm:"not null;default:false" json:"authority"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	Price         int       `json:"price,omitempty"`
	DesVideo      string    `gorm:"type:text" json:"des_video,omitempty"`
	Level         string    `gorm:"size:20" json:"level,omitempty"`
	CredentialDoc string    `gorm:"type:text" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Account) IsTutor() bool {
	return a.Role == RoleTutor
}

// Principal identifies the account bound to a session.
type Principal struct {
	Role       Role   `json:"role"`
	AccountIdx uint   `json:"account_idx"`
	LoginID    string `json:"login_id"`
}
