package models

type User struct {
	BaseModel

	Username string `json:"username" gorm:"uniqueIndex;size:128;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;size:256;not null"`
	Bio      string `json:"bio" gorm:"type:text"`
	Image    string `json:"image"`
	Password string `json:"-" gorm:"not null"`
}
