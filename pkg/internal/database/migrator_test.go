package database

import (
	"path/filepath"
	"testing"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Ping(db))
	for _, table := range []string{"users", "articles", "tags", "comments", "followers", "favourites", "tag_list"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	// Running again must be harmless
	require.NoError(t, DeclareRelations(db))
	require.NoError(t, RunMigration(db))
}

func TestRunMigrationKeepsData(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&models.Tag{Name: "kept"}).Error)
	require.NoError(t, RunMigration(db))

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestJoinTablesAreUnique(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer Close(db)

	user := models.User{Username: "jake", Email: "jake@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	article := models.Article{Slug: "a", Title: "A", AuthorID: user.ID}
	require.NoError(t, db.Omit("Author", "Tags").Create(&article).Error)

	require.NoError(t, db.Omit("User", "Article").Create(&models.Favourite{UserID: user.ID, ArticleID: article.ID}).Error)
	err = db.Omit("User", "Article").Create(&models.Favourite{UserID: user.ID, ArticleID: article.ID}).Error
	assert.Error(t, err)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer Close(db)

	err = db.Omit("Author", "Tags").Create(&models.Article{Slug: "orphan", Title: "Orphan", AuthorID: 404}).Error
	assert.Error(t, err)
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t,
		"host=db port=5432 user=conduit password=secret dbname=conduit sslmode=disable",
		BuildDSN(DialectPostgres, "db", 0, "conduit", "conduit", "secret"),
	)
	assert.Equal(t,
		"conduit:secret@tcp(db:3307)/conduit?charset=utf8mb4&parseTime=True&loc=Local",
		BuildDSN(DialectMysql, "db", 3307, "conduit", "conduit", "secret"),
	)
	assert.Equal(t, "conduit.db", BuildDSN(DialectSqlite, "", 0, "", "", ""))
}

func TestNewDialectorRejectsUnknownDialect(t *testing.T) {
	_, err := NewDialector(Config{Dialect: "oracle"})
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t,
		"conduit.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SqliteDSN("conduit.db"),
	)
	assert.Equal(t,
		"file::memory:?cache=private&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SqliteDSN("file::memory:?cache=private"),
	)
	assert.Equal(t,
		"conduit.db?_pragma=busy_timeout(100)&_pragma=foreign_keys(1)",
		SqliteDSN("conduit.db?_pragma=busy_timeout(100)"),
	)
}

func TestSqliteUsesSingleConnection(t *testing.T) {
	db, err := Open(Config{Dialect: DialectSqlite, DSN: filepath.Join(t.TempDir(), "conduit.db"), MaxOpenConns: 10})
	require.NoError(t, err)
	defer Close(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
