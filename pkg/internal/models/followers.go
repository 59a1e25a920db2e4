package models

// Follower is a self-referencing join row, FollowerID follows FollowedID.
// The composite primary key keeps each pair unique.
type Follower struct {
	FollowerID uint `json:"follower_id" gorm:"primaryKey"`
	FollowedID uint `json:"followed_id" gorm:"primaryKey;index"`

	Follower User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followed User `json:"-" gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`
}

func (Follower) TableName() string {
	return "followers"
}
