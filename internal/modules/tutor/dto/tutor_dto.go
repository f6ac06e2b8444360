package dto

import "anoa.com/handchatter/internal/entity"

type ListQuery struct {
	Q string `form:"q"`
}

// TutorCard is the public view of a tutor in the catalog.
type TutorCard struct {
	TutorIdx    uint   `json:"tutor_idx"`
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`
	Authority   bool   `json:"authority"`
	ProfileImg  string `json:"profile_img"`
	DesVideo    string `json:"des_video"`
	Price       int    `json:"price"`
	Level       string `json:"level"`
}

func NewTutorCard(a *entity.Account) TutorCard {
	return TutorCard{
		TutorIdx:    a.Idx,
		ID:          a.LoginID,
		Nickname:    a.Nickname,
		Description: a.Description,
		Authority:   a.Authority,
		ProfileImg:  a.ProfileImg,
		DesVideo:    a.DesVideo,
		Price:       a.Price,
		Level:       a.Level,
	}
}
