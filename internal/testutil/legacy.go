package testutil

import (
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore"
)

// LegacyPrefix is the table prefix used by the seeded legacy database.
const LegacyPrefix = "wp_"

// Default CMS post types, matching conf defaults.
const (
	PostTypeShelter         = "abrigo"
	PostTypeVolunteer       = "voluntario"
	PostTypeVacancy         = "vaga"
	PostTypePopulationEvent = "dados_populacionais"
)

// LegacyPost is one row to seed into the posts table. A nil Meta value is
// stored as SQL NULL.
type LegacyPost struct {
	ID     int64
	Author int64
	Type   string
	Status string // defaults to "publish"
	Title  string
	Date   time.Time // defaults to 2023-01-15 10:00 UTC
	Meta   map[string]*string
}

// LegacyDB is a seeded copy of the CMS schema in SQLite.
type LegacyDB struct {
	DB       *gorm.DB
	Settings *conf.LegacySettings
	t        *testing.T
}

// NewLegacyDB creates an empty CMS schema (posts, postmeta, users) in a temp
// SQLite database.
func NewLegacyDB(t *testing.T) *LegacyDB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "legacy.db")
	dialector, err := datastore.Dialector(conf.DriverSQLite, dsn)
	require.NoError(t, err)

	db, err := gorm.Open(dialector, datastore.GormConfig(Logger(), 0))
	require.NoError(t, err, "failed to open legacy database")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	schema := []string{
		`CREATE TABLE wp_posts (
			ID INTEGER PRIMARY KEY,
			post_author INTEGER NOT NULL DEFAULT 0,
			post_type TEXT NOT NULL,
			post_status TEXT NOT NULL DEFAULT 'publish',
			post_title TEXT NOT NULL DEFAULT '',
			post_date DATETIME NOT NULL
		)`,
		`CREATE TABLE wp_postmeta (
			meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL,
			meta_key TEXT NOT NULL,
			meta_value TEXT
		)`,
		`CREATE TABLE wp_users (
			ID INTEGER PRIMARY KEY,
			user_email TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error, "failed to create legacy schema")
	}

	return &LegacyDB{
		DB: db,
		Settings: &conf.LegacySettings{
			Driver:      conf.DriverSQLite,
			DSN:         dsn,
			TablePrefix: LegacyPrefix,
			ChunkSize:   500,
			PostTypes: conf.PostTypeSettings{
				Shelter:         PostTypeShelter,
				Volunteer:       PostTypeVolunteer,
				Vacancy:         PostTypeVacancy,
				PopulationEvent: PostTypePopulationEvent,
			},
		},
		t: t,
	}
}

// AddPosts inserts posts and their metadata. Meta keys are written in
// sorted order so meta_id ordering is deterministic.
func (l *LegacyDB) AddPosts(posts ...LegacyPost) {
	l.t.Helper()

	for i := range posts {
		p := &posts[i]
		status := p.Status
		if status == "" {
			status = "publish"
		}
		date := p.Date
		if date.IsZero() {
			date = time.Date(2023, time.January, 15, 10, 0, 0, 0, time.UTC)
		}

		err := l.DB.Exec(
			"INSERT INTO wp_posts (ID, post_author, post_type, post_status, post_title, post_date) VALUES (?, ?, ?, ?, ?, ?)",
			p.ID, p.Author, p.Type, status, p.Title, date).Error
		require.NoError(l.t, err, "failed to seed post %d", p.ID)

		for _, key := range sortedKeys(p.Meta) {
			l.AddMeta(p.ID, key, p.Meta[key])
		}
	}
}

// AddMeta inserts a single metadata row.
func (l *LegacyDB) AddMeta(postID int64, key string, value *string) {
	l.t.Helper()

	err := l.DB.Exec(
		"INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)",
		postID, key, value).Error
	require.NoError(l.t, err, "failed to seed meta %s of post %d", key, postID)
}

// AddUser inserts a CMS user.
func (l *LegacyDB) AddUser(id int64, email string) {
	l.t.Helper()

	err := l.DB.Exec("INSERT INTO wp_users (ID, user_email) VALUES (?, ?)", id, email).Error
	require.NoError(l.t, err, "failed to seed user %d", id)
}

// SetStatus changes the post_status of a seeded post.
func (l *LegacyDB) SetStatus(postID int64, status string) {
	l.t.Helper()

	err := l.DB.Exec("UPDATE wp_posts SET post_status = ? WHERE ID = ?", status, postID).Error
	require.NoError(l.t, err)
}

// SetMeta overwrites every metadata row of postID with key.
func (l *LegacyDB) SetMeta(postID int64, key string, value *string) {
	l.t.Helper()

	err := l.DB.Exec("UPDATE wp_postmeta SET meta_value = ? WHERE post_id = ? AND meta_key = ?",
		value, postID, key).Error
	require.NoError(l.t, err)
}

// DropTable removes a legacy table, used to simulate read failures.
func (l *LegacyDB) DropTable(name string) {
	l.t.Helper()
	require.NoError(l.t, l.DB.Exec(fmt.Sprintf("DROP TABLE %s%s", LegacyPrefix, name)).Error)
}

// Meta builds a metadata map from key/value pairs.
func Meta(pairs ...string) map[string]*string {
	if len(pairs)%2 != 0 {
		panic("testutil.Meta: odd number of arguments")
	}
	m := make(map[string]*string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = Ptr(pairs[i+1])
	}
	return m
}

func sortedKeys(m map[string]*string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
