package legacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore"
	regerrors "github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
)

// ErrAuthorNotFound indicates no CMS user has the requested e-mail.
var ErrAuthorNotFound = regerrors.NewStd("legacy author not found")

// defaultChunkSize bounds the ids per IN (...) clause.
const defaultChunkSize = 500

// Source is the read interface of the legacy CMS database.
type Source interface {
	// EntitiesByType returns every post of the given types, ordered by id.
	EntitiesByType(ctx context.Context, types ...EntityType) ([]Entity, error)
	// EntitiesPage returns up to limit posts of type t with id > afterID, ordered by id.
	EntitiesPage(ctx context.Context, t EntityType, afterID int64, limit int) ([]Entity, error)
	// EntitiesByIDs returns the posts with the given ids whose type is known.
	EntitiesByIDs(ctx context.Context, ids []int64) ([]Entity, error)
	// EntitiesByAuthor returns the posts of type t written by authorID, ordered by id.
	EntitiesByAuthor(ctx context.Context, authorID int64, t EntityType) ([]Entity, error)
	// AttributesByEntityIDs returns the metadata rows of the given posts.
	AttributesByEntityIDs(ctx context.Context, ids []int64) ([]Attribute, error)
	// AuthorIDByEmail resolves a CMS user by e-mail.
	AuthorIDByEmail(ctx context.Context, email string) (int64, error)
}

// postRow maps the CMS posts table.
type postRow struct {
	ID         int64     `gorm:"column:ID"`
	PostAuthor int64     `gorm:"column:post_author"`
	PostType   string    `gorm:"column:post_type"`
	PostStatus string    `gorm:"column:post_status"`
	PostTitle  string    `gorm:"column:post_title"`
	PostDate   time.Time `gorm:"column:post_date"`
}

// metaRow maps the CMS postmeta table.
type metaRow struct {
	MetaID    int64   `gorm:"column:meta_id"`
	PostID    int64   `gorm:"column:post_id"`
	MetaKey   string  `gorm:"column:meta_key"`
	MetaValue *string `gorm:"column:meta_value"`
}

// GormSource implements Source over a CMS database opened with GORM.
type GormSource struct {
	db        *gorm.DB
	prefix    string
	types     TypeMap
	chunkSize int
}

// NewGormSource creates a Source over db using the table prefix and post
// types from cfg.
func NewGormSource(db *gorm.DB, cfg *conf.LegacySettings) *GormSource {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &GormSource{
		db:        db,
		prefix:    cfg.TablePrefix,
		types:     NewTypeMap(cfg.PostTypes),
		chunkSize: chunkSize,
	}
}

// Open connects to the legacy database described by cfg.
func Open(cfg *conf.LegacySettings, log logger.Logger, slowThreshold time.Duration) (*GormSource, func() error, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, regerrors.New(regerrors.NewStd("legacy.dsn is not configured")).
			Component("legacy").
			Category(regerrors.CategoryConfiguration).
			Build()
	}

	dialector, err := datastore.Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	db, err := gorm.Open(dialector, datastore.GormConfig(log, slowThreshold))
	if err != nil {
		return nil, nil, regerrors.New(fmt.Errorf("failed to open legacy database: %w", err)).
			Component("legacy").
			Category(regerrors.CategorySourceRead).
			Priority(regerrors.PriorityCritical).
			Build()
	}

	closeFn := func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return NewGormSource(db, cfg), closeFn, nil
}

func (s *GormSource) postsTable() string { return s.prefix + "posts" }
func (s *GormSource) metaTable() string  { return s.prefix + "postmeta" }
func (s *GormSource) usersTable() string { return s.prefix + "users" }

// postTypes resolves entity types to post_type values.
func (s *GormSource) postTypes(types []EntityType) ([]string, error) {
	postTypes := make([]string, 0, len(types))
	for _, t := range types {
		postType, ok := s.types.PostType(t)
		if !ok {
			return nil, fmt.Errorf("no post type configured for %s", t)
		}
		postTypes = append(postTypes, postType)
	}
	return postTypes, nil
}

// toEntities converts rows, dropping posts of unknown type.
func (s *GormSource) toEntities(rows []postRow) []Entity {
	out := make([]Entity, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		entityType, ok := s.types.EntityType(row.PostType)
		if !ok {
			continue
		}
		out = append(out, Entity{
			ID:        row.ID,
			AuthorID:  row.PostAuthor,
			Type:      entityType,
			Status:    parseStatus(row.PostStatus),
			Title:     row.PostTitle,
			CreatedAt: row.PostDate,
		})
	}
	return out
}

// readError tags a failed read against the legacy database.
func readError(err error, operation string) error {
	return regerrors.New(fmt.Errorf("legacy %s: %w", operation, err)).
		Component("legacy").
		Category(regerrors.CategorySourceRead).
		Context("operation", operation).
		Build()
}

// EntitiesByType returns all posts of the given types.
func (s *GormSource) EntitiesByType(ctx context.Context, types ...EntityType) ([]Entity, error) {
	postTypes, err := s.postTypes(types)
	if err != nil {
		return nil, err
	}

	var rows []postRow
	err = s.db.WithContext(ctx).Table(s.postsTable()).
		Where("post_type IN ?", postTypes).
		Order("ID ASC").
		Find(&rows).Error
	if err != nil {
		return nil, readError(err, "entities_by_type")
	}
	return s.toEntities(rows), nil
}

// EntitiesPage returns one page of posts of type t after the cursor.
func (s *GormSource) EntitiesPage(ctx context.Context, t EntityType, afterID int64, limit int) ([]Entity, error) {
	postTypes, err := s.postTypes([]EntityType{t})
	if err != nil {
		return nil, err
	}

	var rows []postRow
	err = s.db.WithContext(ctx).Table(s.postsTable()).
		Where("post_type = ? AND ID > ?", postTypes[0], afterID).
		Order("ID ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, readError(err, "entities_page")
	}
	return s.toEntities(rows), nil
}

// EntitiesByIDs returns the posts with the given ids.
func (s *GormSource) EntitiesByIDs(ctx context.Context, ids []int64) ([]Entity, error) {
	var out []Entity
	for chunk := range chunked(ids, s.chunkSize) {
		var rows []postRow
		err := s.db.WithContext(ctx).Table(s.postsTable()).
			Where("ID IN ?", chunk).
			Order("ID ASC").
			Find(&rows).Error
		if err != nil {
			return nil, readError(err, "entities_by_ids")
		}
		out = append(out, s.toEntities(rows)...)
	}
	return out, nil
}

// EntitiesByAuthor returns the posts of type t written by authorID.
func (s *GormSource) EntitiesByAuthor(ctx context.Context, authorID int64, t EntityType) ([]Entity, error) {
	postTypes, err := s.postTypes([]EntityType{t})
	if err != nil {
		return nil, err
	}

	var rows []postRow
	err = s.db.WithContext(ctx).Table(s.postsTable()).
		Where("post_author = ? AND post_type = ?", authorID, postTypes[0]).
		Order("ID ASC").
		Find(&rows).Error
	if err != nil {
		return nil, readError(err, "entities_by_author")
	}
	return s.toEntities(rows), nil
}

// AttributesByEntityIDs returns the metadata of the given posts ordered by
// post and meta id. Ids are queried in chunks to stay under driver
// placeholder limits.
func (s *GormSource) AttributesByEntityIDs(ctx context.Context, ids []int64) ([]Attribute, error) {
	var out []Attribute
	for chunk := range chunked(ids, s.chunkSize) {
		var rows []metaRow
		err := s.db.WithContext(ctx).Table(s.metaTable()).
			Where("post_id IN ?", chunk).
			Order("post_id ASC, meta_id ASC").
			Find(&rows).Error
		if err != nil {
			return nil, readError(err, "attributes_by_entity_ids")
		}
		for i := range rows {
			out = append(out, Attribute{
				EntityID: rows[i].PostID,
				Key:      rows[i].MetaKey,
				Value:    rows[i].MetaValue,
			})
		}
	}
	return out, nil
}

// AuthorIDByEmail resolves a CMS user id by e-mail, ignoring case.
func (s *GormSource) AuthorIDByEmail(ctx context.Context, email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, ErrAuthorNotFound
	}

	var ids []int64
	err := s.db.WithContext(ctx).Table(s.usersTable()).
		Where("LOWER(user_email) = ?", email).
		Order("ID ASC").
		Limit(1).
		Pluck("ID", &ids).Error
	if err != nil {
		return 0, readError(err, "author_by_email")
	}
	if len(ids) == 0 {
		return 0, ErrAuthorNotFound
	}
	return ids[0], nil
}

// chunked yields consecutive sub-slices of at most size elements.
func chunked(ids []int64, size int) func(yield func([]int64) bool) {
	return func(yield func([]int64) bool) {
		for start := 0; start < len(ids); start += size {
			end := min(start+size, len(ids))
			if !yield(ids[start:end]) {
				return
			}
		}
	}
}

var _ Source = (*GormSource)(nil)
