package models

type Article struct {
	BaseModel

	Slug        string `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Body        string `json:"body" gorm:"type:text"`
	Language    string `json:"language"`

	// The join rows follow both sides through the constraint, the tags themselves stay.
	Tags []Tag `json:"tags" gorm:"many2many:tag_list;constraint:OnDelete:CASCADE"`

	AuthorID uint `json:"author_id" gorm:"index;not null"`
	Author   User `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`

	Metric ArticleMetric `json:"metric" gorm:"-"`
}

type ArticleMetric struct {
	FavouriteCount    int64 `json:"favourite_count"`
	IsFavourited      bool  `json:"is_favourited"`
	IsFollowingAuthor bool  `json:"is_following_author"`
}
