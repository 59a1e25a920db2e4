package models

type Comment struct {
	BaseModel

	Body string `json:"body" gorm:"type:text;not null"`

	ArticleID uint    `json:"article_id" gorm:"index;not null"`
	Article   Article `json:"-" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	AuthorID  uint    `json:"author_id" gorm:"index;not null"`
	Author    User    `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
