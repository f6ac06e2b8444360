package dto

import "time"

type FavoriteInput struct {
	TutorIdx uint `json:"tutorIdx" form:"tutorIdx" binding:"required"`
}

// FavoriteTutor is the public projection of a favorited tutor.
type FavoriteTutor struct {
	TutorIdx    uint   `json:"tutor_idx"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`
	ProfileImg  string `json:"profile_img"`
	Price       int    `json:"price"`
}

const EventFavoriteAdded = "favorite_added"

// FavoriteEvent is pushed to a tutor when a student favorites them.
type FavoriteEvent struct {
	Type            string    `json:"type"`
	StudentNickname string    `json:"student_nickname"`
	TutorIdx        uint      `json:"tutor_idx"`
	CreatedAt       time.Time `json:"created_at"`
}
