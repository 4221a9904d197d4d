package dataset

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/migration"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type loaderFixture struct {
	legacy *testutil.LegacyDB
	loader *Loader
	runner *migration.Runner
	repos  migration.Repositories
}

func setupLoader(t *testing.T, opts Options) *loaderFixture {
	t.Helper()

	store := testutil.NewStore(t)
	db := store.DB()
	legacyDB := testutil.NewLegacyDB(t)
	log := testutil.Logger()

	extractor := legacy.NewExtractor(legacy.NewGormSource(legacyDB.DB, legacyDB.Settings), log)
	repos := migration.Repositories{
		Shelters:   repository.NewShelterRepository(db),
		Volunteers: repository.NewVolunteerRepository(db),
		Vacancies:  repository.NewVacancyRepository(db),
		Events:     repository.NewPopulationEventRepository(db),
	}
	return &loaderFixture{
		legacy: legacyDB,
		loader: NewLoader(repos.Shelters, repos.Events, extractor, opts, nil, log),
		runner: migration.NewRunner(extractor, migration.NewWriter(repos, log), nil, log),
		repos:  repos,
	}
}

func (f *loaderFixture) migrate(t *testing.T, kinds ...legacy.EntityType) {
	t.Helper()
	_, err := f.runner.Run(t.Context(), kinds, migration.Options{})
	require.NoError(t, err)
}

func (f *loaderFixture) load(t *testing.T) *Dataset {
	t.Helper()
	ds, err := f.loader.Load(t.Context())
	require.NoError(t, err)
	return ds
}

func eventPost(id, author int64, meta ...string) testutil.LegacyPost {
	return testutil.LegacyPost{ID: id, Author: author, Type: testutil.PostTypePopulationEvent, Meta: testutil.Meta(meta...)}
}

func TestLegacyShelterMergedWithoutMigration(t *testing.T) {
	t.Parallel()
	f := setupLoader(t, Options{})

	f.legacy.AddPosts(testutil.LegacyPost{
		ID: 2151, Author: 727, Type: testutil.PostTypeShelter, Title: "Abrigo Centro",
		Meta: testutil.Meta("bairro", "Centro", "estado", "MG"),
	})

	ds := f.load(t)
	require.Len(t, ds.Shelters, 1)
	s := ds.Shelters[0]
	assert.Equal(t, "Centro", s.District)
	assert.Equal(t, int64(2151), *s.LegacyEntityID)
	assert.Equal(t, LegacyID(legacy.EntityShelter, 2151), s.ID)
	assert.Nil(t, s.OwnerIdentityID)

	origin, ok := ds.Origin(s.ID)
	require.True(t, ok)
	assert.Equal(t, OriginLegacy, origin)

	again := f.load(t)
	assert.Equal(t, s.ID, again.Shelters[0].ID, "legacy ids are stable across loads")
}

func TestNormalizedCopyWins(t *testing.T) {
	t.Parallel()
	f := setupLoader(t, Options{})
	ctx := t.Context()

	f.legacy.AddPosts(
		testutil.LegacyPost{ID: 2151, Author: 727, Type: testutil.PostTypeShelter, Title: "Abrigo",
			Meta: testutil.Meta("bairro", "Centro")},
		eventPost(400, 727, "abrigo_id", "2151", "ano", "2023", "mes", "5", "entrada_caes", "4"),
	)
	f.migrate(t, legacy.EntityShelter, legacy.EntityPopulationEvent)

	normalized, err := f.repos.Shelters.GetByLegacyID(ctx, 2151)
	require.NoError(t, err)
	require.NoError(t, f.repos.Shelters.UpdateFields(ctx, normalized.ID, map[string]any{"district": "Savassi"}))

	ds := f.load(t)
	require.Len(t, ds.Shelters, 1)
	require.Len(t, ds.Events, 1)

	s, ok := ds.ShelterByLegacyID(2151)
	require.True(t, ok)
	assert.Equal(t, normalized.ID, s.ID)
	assert.Equal(t, "Savassi", s.District)
	assert.Equal(t, normalized.ID, ds.Events[0].ShelterID)

	origin, _ := ds.Origin(ds.Events[0].ID)
	assert.Equal(t, OriginNormalized, origin)

	shelters, events := ds.Count(OriginLegacy)
	assert.Zero(t, shelters)
	assert.Zero(t, events)
}

func TestLegacyEventsResolveShelters(t *testing.T) {
	t.Parallel()
	f := setupLoader(t, Options{})

	f.legacy.AddPosts(
		testutil.LegacyPost{ID: 100, Author: 7, Type: testutil.PostTypeShelter, Meta: testutil.Meta("estado", "SP")},
		testutil.LegacyPost{ID: 101, Author: 8, Type: testutil.PostTypeShelter, Meta: testutil.Meta("estado", "RJ")},
	)
	f.migrate(t, legacy.EntityShelter)
	f.legacy.AddPosts(
		testutil.LegacyPost{ID: 102, Author: 9, Type: testutil.PostTypeShelter, Meta: testutil.Meta("estado", "BA")},
		eventPost(400, 7, "ano", "2022", "mes", "1", "entrada_gatos", "2"), // author fallback to 100
		eventPost(401, 1, "abrigo_id", "102", "ano", "2024", "mes", "12"),  // unmigrated shelter
		eventPost(402, 1, "abrigo_id", "999", "ano", "2024", "mes", "12"),  // unknown shelter
		eventPost(403, 55, "ano", "2024", "mes", "3"),                      // author without shelter
	)

	ds := f.load(t)
	require.Len(t, ds.Shelters, 3)
	require.Len(t, ds.Events, 2)

	migrated, err := f.repos.Shelters.GetByLegacyID(t.Context(), 100)
	require.NoError(t, err)

	byLegacy := make(map[int64]entities.PopulationEvent)
	for _, e := range ds.Events {
		byLegacy[*e.LegacyEntityID] = e
	}
	assert.Equal(t, migrated.ID, byLegacy[400].ShelterID)
	assert.Equal(t, LegacyID(legacy.EntityShelter, 102), byLegacy[401].ShelterID)
	assert.Equal(t, 2, byLegacy[400].Entries().Cats)

	assert.Equal(t, []int{2022, 2023, 2024}, ds.Years)
	assert.Equal(t, []string{"BA", "RJ", "SP"}, ds.States)
}

func TestDraftsExcludedUnlessRequested(t *testing.T) {
	t.Parallel()

	for _, include := range []bool{false, true} {
		f := setupLoader(t, Options{IncludeDrafts: include})
		f.legacy.AddPosts(
			testutil.LegacyPost{ID: 1, Type: testutil.PostTypeShelter},
			testutil.LegacyPost{ID: 2, Type: testutil.PostTypeShelter, Status: "draft"},
		)

		ds := f.load(t)
		if include {
			assert.Len(t, ds.Shelters, 2)
		} else {
			assert.Len(t, ds.Shelters, 1)
		}
	}
}

func TestEventsOfExcludedDraftShelterAreDropped(t *testing.T) {
	t.Parallel()

	for _, include := range []bool{false, true} {
		f := setupLoader(t, Options{IncludeDrafts: include})
		f.legacy.AddPosts(
			testutil.LegacyPost{ID: 10, Author: 5, Type: testutil.PostTypeShelter, Status: "draft",
				Meta: testutil.Meta("estado", "SP")},
			eventPost(20, 1, "abrigo_id", "10", "ano", "2023", "mes", "3", "entrada_caes", "7"),
			eventPost(21, 5, "ano", "2023", "mes", "4", "entrada_gatos", "2"), // author fallback to 10
		)

		ds := f.load(t)
		if !include {
			assert.Empty(t, ds.Shelters)
			assert.Empty(t, ds.Events, "events never point at a shelter outside the dataset")
			continue
		}
		require.Len(t, ds.Shelters, 1)
		require.Len(t, ds.Events, 2)
		for _, e := range ds.Events {
			assert.Equal(t, ds.Shelters[0].ID, e.ShelterID)
		}
	}
}

func TestEmptySourcesYieldEmptyDataset(t *testing.T) {
	t.Parallel()
	f := setupLoader(t, Options{})

	ds := f.load(t)
	assert.True(t, ds.Empty())
	assert.Empty(t, ds.Years)
	assert.Empty(t, ds.States)
}

func TestLoadFailureIsReported(t *testing.T) {
	t.Parallel()
	f := setupLoader(t, Options{})

	f.legacy.AddPosts(testutil.LegacyPost{ID: 1, Type: testutil.PostTypeShelter})
	f.legacy.DropTable("postmeta")

	ds, err := f.loader.Load(t.Context())
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
}

func TestConcurrentLoads(t *testing.T) {
	t.Parallel()
	f := setupLoader(t, Options{})
	f.legacy.AddPosts(testutil.LegacyPost{ID: 1, Type: testutil.PostTypeShelter})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := f.loader.Load(context.Background())
			assert.NoError(t, err)
			if assert.NotNil(t, ds) {
				assert.Len(t, ds.Shelters, 1)
			}
		}()
	}
	wg.Wait()
}

// countingProvider counts loads and fails while failing is set.
type countingProvider struct {
	loads   atomic.Int32
	failing atomic.Bool
}

func (p *countingProvider) Load(context.Context) (*Dataset, error) {
	p.loads.Add(1)
	if p.failing.Load() {
		return nil, ErrLoadFailed
	}
	return &Dataset{}, nil
}

func TestCachedLoader(t *testing.T) {
	t.Parallel()

	t.Run("zero ttl disables caching", func(t *testing.T) {
		inner := &countingProvider{}
		p := NewCachedLoader(inner, 0, nil)
		assert.Same(t, inner, p)
	})

	t.Run("serves from cache", func(t *testing.T) {
		inner := &countingProvider{}
		p := NewCachedLoader(inner, time.Minute, nil)

		first, err := p.Load(t.Context())
		require.NoError(t, err)
		second, err := p.Load(t.Context())
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), inner.loads.Load())

		p.(*CachedLoader).Invalidate()
		_, err = p.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int32(2), inner.loads.Load())
	})

	t.Run("failures are not cached", func(t *testing.T) {
		inner := &countingProvider{}
		inner.failing.Store(true)
		p := NewCachedLoader(inner, time.Minute, nil)

		_, err := p.Load(t.Context())
		require.ErrorIs(t, err, ErrLoadFailed)

		inner.failing.Store(false)
		ds, err := p.Load(t.Context())
		require.NoError(t, err)
		assert.NotNil(t, ds)
		assert.Equal(t, int32(2), inner.loads.Load())
	})

	t.Run("expires after ttl", func(t *testing.T) {
		inner := &countingProvider{}
		p := NewCachedLoader(inner, 20*time.Millisecond, nil)

		_, err := p.Load(t.Context())
		require.NoError(t, err)
		time.Sleep(40 * time.Millisecond)
		_, err = p.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int32(2), inner.loads.Load())
	})
}
