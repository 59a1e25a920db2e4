package api

import (
	"time"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"github.com/samber/lo"
)

type userView struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type profileView struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type articleView struct {
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Body           string      `json:"body"`
	TagList        []string    `json:"tagList"`
	Language       string      `json:"language"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Favorited      bool        `json:"favorited"`
	FavoritesCount int64       `json:"favoritesCount"`
	Author         profileView `json:"author"`
}

type commentView struct {
	ID        uint        `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Body      string      `json:"body"`
	Author    profileView `json:"author"`
}

func renderUser(user models.User, token string) userView {
	return userView{
		Email:    user.Email,
		Token:    token,
		Username: user.Username,
		Bio:      user.Bio,
		Image:    user.Image,
	}
}

func renderProfile(user models.User, following bool) profileView {
	return profileView{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: following,
	}
}

func renderArticle(item models.Article) articleView {
	return articleView{
		Slug:        item.Slug,
		Title:       item.Title,
		Description: item.Description,
		Body:        item.Body,
		TagList: lo.Map(item.Tags, func(tag models.Tag, _ int) string {
			return tag.Name
		}),
		Language:       item.Language,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
		Favorited:      item.Metric.IsFavourited,
		FavoritesCount: item.Metric.FavouriteCount,
		Author:         renderProfile(item.Author, item.Metric.IsFollowingAuthor),
	}
}

func renderArticles(items []*models.Article) []articleView {
	return lo.Map(items, func(item *models.Article, _ int) articleView {
		return renderArticle(*item)
	})
}

func renderComments(items []models.Comment, followed []uint) []commentView {
	return lo.Map(items, func(item models.Comment, _ int) commentView {
		return commentView{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
			Body:      item.Body,
			Author:    renderProfile(item.Author, lo.Contains(followed, item.AuthorID)),
		}
	})
}
