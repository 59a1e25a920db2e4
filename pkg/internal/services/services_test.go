package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/database"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func newTestStore(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user, err := RegisterUser(db, name, fmt.Sprintf("%s@example.com", name), "password")
	require.NoError(t, err)
	return user
}

func newTestArticle(t *testing.T, db *gorm.DB, author models.User, title string, tags ...string) models.Article {
	t.Helper()
	item, err := NewArticle(db, author.ID, models.Article{
		Title:       title,
		Description: "About " + title,
		Body:        "This is the body of an article written in plain English.",
	}, tags)
	require.NoError(t, err)
	return item
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	tx := db.Model(model)
	if len(query) > 0 {
		tx = tx.Where(query, args...)
	}
	require.NoError(t, tx.Count(&count).Error)
	return count
}

func TestRegisterUser(t *testing.T) {
	db := newTestStore(t)

	user, err := RegisterUser(db, "jake", " Jake@Example.com ", "jakejake")
	require.NoError(t, err)
	assert.Equal(t, "jake@example.com", user.Email)
	assert.NotEqual(t, "jakejake", user.Password)
	assert.True(t, CheckPassword(user.Password, "jakejake"))

	_, err = RegisterUser(db, "jake", "other@example.com", "jakejake")
	assert.ErrorIs(t, err, ErrConstraint)

	_, err = RegisterUser(db, "other", "jake@example.com", "jakejake")
	assert.ErrorIs(t, err, ErrConstraint)

	_, err = RegisterUser(db, "", "empty@example.com", "jakejake")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticateUser(t *testing.T) {
	db := newTestStore(t)
	newTestUser(t, db, "jake")

	user, err := AuthenticateUser(db, "JAKE@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "jake", user.Username)

	_, err = AuthenticateUser(db, "jake@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = AuthenticateUser(db, "nobody@example.com", "password")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateUser(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	newTestUser(t, db, "anna")

	bio := "I work at statefarm"
	password := "new-password"
	updated, err := UpdateUser(db, jake, UserChanges{Bio: &bio, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)

	_, err = AuthenticateUser(db, "jake@example.com", password)
	assert.NoError(t, err)

	taken := "anna"
	_, err = UpdateUser(db, updated, UserChanges{Username: &taken})
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestUserTokens(t *testing.T) {
	viper.Set("security.token_secret", "test-secret")
	t.Cleanup(func() { viper.Set("security.token_secret", "") })

	user := models.User{BaseModel: models.BaseModel{ID: 42}, Username: "jake"}
	token, err := NewUserToken(user)
	require.NoError(t, err)

	claims, err := ReadUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "jake", claims.Username)

	_, err = ReadUserToken(token + "x")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFollowUser(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	anna := newTestUser(t, db, "anna")

	assert.ErrorIs(t, FollowUser(db, jake, jake), ErrValidation)

	require.NoError(t, FollowUser(db, jake, anna))
	require.NoError(t, FollowUser(db, jake, anna))
	assert.EqualValues(t, 1, countRows(t, db, &models.Follower{}, ""))

	profile, err := GetProfile(db, &jake.ID, "anna")
	require.NoError(t, err)
	assert.True(t, profile.Following)

	profile, err = GetProfile(db, nil, "anna")
	require.NoError(t, err)
	assert.False(t, profile.Following)

	require.NoError(t, UnfollowUser(db, jake, anna))
	require.NoError(t, UnfollowUser(db, jake, anna))
	following, err := IsFollowing(db, jake.ID, anna.ID)
	require.NoError(t, err)
	assert.False(t, following)

	_, err = GetProfile(db, nil, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewArticle(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")

	item := newTestArticle(t, db, jake, "How to train your dragon", "dragons", " training ", "dragons", "")
	assert.Equal(t, "how-to-train-your-dragon", item.Slug)
	assert.Equal(t, "en", item.Language)
	assert.Len(t, item.Tags, 2)
	assert.EqualValues(t, 2, countRows(t, db, &models.TagList{}, "article_id = ?", item.ID))

	again := newTestArticle(t, db, jake, "How to train your dragon", "dragons")
	assert.Equal(t, "how-to-train-your-dragon-2", again.Slug)
	assert.EqualValues(t, 2, countRows(t, db, &models.Tag{}, ""))

	_, err := NewArticle(db, jake.ID, models.Article{Title: "No body"}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewArticleWithMissingAuthor(t *testing.T) {
	db := newTestStore(t)

	_, err := NewArticle(db, 404, models.Article{Title: "Orphan", Body: "Nobody wrote this."}, []string{"ghost"})
	assert.ErrorIs(t, err, ErrConstraint)
	assert.EqualValues(t, 0, countRows(t, db, &models.Article{}, ""))
	assert.EqualValues(t, 0, countRows(t, db, &models.Tag{}, ""))
}

func TestNewArticleRollsBackOnStoreFault(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	require.NoError(t, db.Migrator().DropTable(&models.TagList{}))

	_, err := NewArticle(db, jake.ID, models.Article{Title: "Broken", Body: "The tag list is gone."}, []string{"lost"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, 0, countRows(t, db, &models.Article{}, ""))
}

func TestEditArticle(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	item := newTestArticle(t, db, jake, "First title", "a", "b")

	title := "Second title"
	tags := []string{"b", "c"}
	item, err := EditArticle(db, item, ArticleChanges{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "second-title", item.Slug)

	item, err = GetArticleBySlug(db, "second-title", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, []string{item.Tags[0].Name, item.Tags[1].Name})
	assert.EqualValues(t, 3, countRows(t, db, &models.Tag{}, ""))
}

func TestListArticleFilters(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	anna := newTestUser(t, db, "anna")

	first := newTestArticle(t, db, jake, "Dragons", "dragons")
	newTestArticle(t, db, jake, "Angular", "angular")
	newTestArticle(t, db, anna, "Dragons again", "dragons")
	require.NoError(t, FavouriteArticle(db, anna, first))
	require.NoError(t, FollowUser(db, anna, jake))

	count, err := CountArticle(FilterArticleWithTag(db, "dragons"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = CountArticle(FilterArticleWithAuthor(db, "jake"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	items, err := ListArticle(FilterArticleWithFavouriter(db, "anna"), 0, 0, &anna.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)
	assert.True(t, items[0].Metric.IsFavourited)
	assert.True(t, items[0].Metric.IsFollowingAuthor)
	assert.EqualValues(t, 1, items[0].Metric.FavouriteCount)

	items, err = ListArticle(FilterArticleWithFollowedAuthors(db, anna.ID), 1, 0, &anna.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "angular", items[0].Slug)
}

func TestFavouriteArticleIsIdempotent(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	item := newTestArticle(t, db, jake, "Favourite me")

	require.NoError(t, FavouriteArticle(db, jake, item))
	require.NoError(t, FavouriteArticle(db, jake, item))

	count, err := CountFavourites(db, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, UnfavouriteArticle(db, jake, item))
	favourited, err := IsFavourited(db, jake.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, favourited)
}

func TestDeleteArticleKeepsTags(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	anna := newTestUser(t, db, "anna")
	item := newTestArticle(t, db, jake, "Short lived", "x", "y")
	_, err := NewComment(db, item.ID, anna.ID, "Nice one")
	require.NoError(t, err)
	require.NoError(t, FavouriteArticle(db, anna, item))

	require.NoError(t, DeleteArticle(db, item))

	assert.EqualValues(t, 0, countRows(t, db, &models.Article{}, ""))
	assert.EqualValues(t, 0, countRows(t, db, &models.TagList{}, ""))
	assert.EqualValues(t, 0, countRows(t, db, &models.Comment{}, ""))
	assert.EqualValues(t, 0, countRows(t, db, &models.Favourite{}, ""))
	assert.EqualValues(t, 2, countRows(t, db, &models.Tag{}, ""))

	tags, err := ListTags(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tags)
}

func TestDeleteUserCascades(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	anna := newTestUser(t, db, "anna")

	own := newTestArticle(t, db, jake, "Jake writes", "mine")
	other := newTestArticle(t, db, anna, "Anna writes", "hers")

	_, err := NewComment(db, own.ID, anna.ID, "Comment on jake's article")
	require.NoError(t, err)
	_, err = NewComment(db, other.ID, jake.ID, "Comment by jake")
	require.NoError(t, err)
	_, err = NewComment(db, other.ID, anna.ID, "Anna answers herself")
	require.NoError(t, err)
	require.NoError(t, FavouriteArticle(db, anna, own))
	require.NoError(t, FavouriteArticle(db, jake, other))
	require.NoError(t, FollowUser(db, anna, jake))
	require.NoError(t, FollowUser(db, jake, anna))

	require.NoError(t, DeleteUser(db, jake))

	assert.EqualValues(t, 0, countRows(t, db, &models.User{}, "id = ?", jake.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Article{}, "author_id = ?", jake.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Comment{}, "author_id = ?", jake.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Comment{}, "article_id = ?", own.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Favourite{}, ""))
	assert.EqualValues(t, 0, countRows(t, db, &models.Follower{}, ""))
	assert.EqualValues(t, 0, countRows(t, db, &models.TagList{}, "article_id = ?", own.ID))

	assert.EqualValues(t, 1, countRows(t, db, &models.Article{}, "id = ?", other.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Comment{}, "article_id = ?", other.ID))
	assert.EqualValues(t, 2, countRows(t, db, &models.Tag{}, ""))
}

func TestForeignKeyCascadeInStore(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	item := newTestArticle(t, db, jake, "Raw delete", "raw")

	// Bypass the service to check the constraints themselves
	require.NoError(t, db.Exec("DELETE FROM users WHERE id = ?", jake.ID).Error)

	assert.EqualValues(t, 0, countRows(t, db, &models.Article{}, "id = ?", item.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.TagList{}, ""))
	assert.EqualValues(t, 1, countRows(t, db, &models.Tag{}, ""))
}

func TestComments(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")
	anna := newTestUser(t, db, "anna")
	item := newTestArticle(t, db, jake, "Discuss")

	comment, err := NewComment(db, item.ID, anna.ID, "  First!  ")
	require.NoError(t, err)
	assert.Equal(t, "First!", comment.Body)

	_, err = NewComment(db, item.ID, 404, "Ghost comment")
	assert.ErrorIs(t, err, ErrConstraint)
	_, err = NewComment(db, 404, anna.ID, "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewComment(db, item.ID, anna.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)

	items, err := ListComments(db, item)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "anna", items[0].Author.Username)

	found, err := GetComment(db, item, comment.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, DeleteComment(db, found, jake), ErrForbidden)
	assert.NoError(t, DeleteComment(db, found, anna))
	_, err = GetComment(db, item, comment.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeTagNames(t *testing.T) {
	assert.Equal(t, []string{"go", "web"}, NormalizeTagNames([]string{" go", "", "web", "go "}))
	assert.Empty(t, NormalizeTagNames(nil))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "unknown", DetectLanguage("   "))
	assert.Equal(t, "en", DetectLanguage("The quick brown fox jumps over the lazy dog and runs away."))
	assert.Equal(t, "de", DetectLanguage("Der schnelle braune Fuchs springt über den faulen Hund."))
}

func TestConcurrentWritesOnFileStore(t *testing.T) {
	db, err := database.Open(database.Config{
		Dialect:      database.DialectSqlite,
		DSN:          filepath.Join(t.TempDir(), "conduit.db"),
		MaxOpenConns: 10,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.DeclareRelations(db))
	require.NoError(t, database.RunMigration(db))

	jake := newTestUser(t, db, "jake")

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for idx := 0; idx < writers; idx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := NewArticle(db, jake.ID, models.Article{
				Title: "Same title",
				Body:  fmt.Sprintf("Concurrent article number %d written in English.", idx),
			}, []string{"shared", fmt.Sprintf("tag-%d", idx%4)})
			errs <- err
		}(idx)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, writers, countRows(t, db, &models.Article{}, ""))
	assert.EqualValues(t, 5, countRows(t, db, &models.Tag{}, ""))

	var slugs []string
	require.NoError(t, db.Model(&models.Article{}).Distinct("slug").Pluck("slug", &slugs).Error)
	assert.Len(t, slugs, writers)
}

func TestListArticleClampsTake(t *testing.T) {
	db := newTestStore(t)
	jake := newTestUser(t, db, "jake")

	rows := make([]models.Article, MaxArticleTake+5)
	for idx := range rows {
		rows[idx] = models.Article{
			Slug:     fmt.Sprintf("article-%d", idx),
			Title:    fmt.Sprintf("Article %d", idx),
			Body:     "Body",
			AuthorID: jake.ID,
		}
	}
	require.NoError(t, db.Omit(clause.Associations).CreateInBatches(&rows, 50).Error)

	items, err := ListArticle(db, 1000, 0, nil)
	require.NoError(t, err)
	assert.Len(t, items, MaxArticleTake)

	items, err = ListArticle(db, 0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, items, DefaultArticleTake)

	items, err = ListArticle(db, 10, -3, nil)
	require.NoError(t, err)
	assert.Len(t, items, 10)

	items, err = ListArticle(db, 10, MaxArticleTake, nil)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}
