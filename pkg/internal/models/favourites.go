package models

type Favourite struct {
	UserID    uint `json:"user_id" gorm:"primaryKey"`
	ArticleID uint `json:"article_id" gorm:"primaryKey;index"`

	User    User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Article Article `json:"-" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}

func (Favourite) TableName() string {
	return "favourites"
}
