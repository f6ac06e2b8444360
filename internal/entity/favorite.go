package entity

import "time"

type Favorite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentIdx uint      `gorm:"not null;uniqueIndex:idx_favorites_pair" json:"student_idx"`
	TutorIdx   uint      `gorm:"not null;uniqueIndex:idx_favorites_pair;index" json:"tutor_idx"`
	Student    Account   `gorm:"foreignKey:StudentIdx;references:Idx;constraint:OnDelete:CASCADE" json:"-"`
	Tutor      Account   `gorm:"foreignKey:TutorIdx;references:Idx;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
