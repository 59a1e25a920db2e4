package models

type Tag struct {
	BaseModel

	Name string `json:"name" gorm:"uniqueIndex;size:128;not null"`
}

// TagList is the join row between Article and Tag.
type TagList struct {
	ArticleID uint `json:"article_id" gorm:"primaryKey"`
	TagID     uint `json:"tag_id" gorm:"primaryKey;index"`

	Article Article `json:"-" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	Tag     Tag     `json:"-" gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

func (TagList) TableName() string {
	return "tag_list"
}
