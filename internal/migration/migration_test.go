package migration_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/mapping"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/migration"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/testutil"
)

type fixture struct {
	legacy *testutil.LegacyDB
	repos  migration.Repositories
	writer *migration.Writer
	runner *migration.Runner
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewStore(t)
	db := store.DB()
	repos := migration.Repositories{
		Shelters:   repository.NewShelterRepository(db),
		Volunteers: repository.NewVolunteerRepository(db),
		Vacancies:  repository.NewVacancyRepository(db),
		Events:     repository.NewPopulationEventRepository(db),
		Ledger:     repository.NewLedgerRepository(db),
	}
	return newFixture(t, repos)
}

func newFixture(t *testing.T, repos migration.Repositories) *fixture {
	t.Helper()

	legacyDB := testutil.NewLegacyDB(t)
	log := testutil.Logger()
	extractor := legacy.NewExtractor(legacy.NewGormSource(legacyDB.DB, legacyDB.Settings), log)
	writer := migration.NewWriter(repos, log)
	return &fixture{
		legacy: legacyDB,
		repos:  repos,
		writer: writer,
		runner: migration.NewRunner(extractor, writer, nil, log),
	}
}

func (f *fixture) run(t *testing.T, opts migration.Options, kinds ...legacy.EntityType) *migration.Report {
	t.Helper()
	if len(kinds) == 0 {
		kinds = legacy.AllEntityTypes
	}
	report, err := f.runner.Run(t.Context(), kinds, opts)
	require.NoError(t, err)
	return report
}

func shelterPost(id, author int64, meta ...string) testutil.LegacyPost {
	return testutil.LegacyPost{
		ID: id, Author: author, Type: testutil.PostTypeShelter,
		Title: fmt.Sprintf("Abrigo %d", id), Meta: testutil.Meta(meta...),
	}
}

func TestScenarioShelter2151(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)
	ctx := t.Context()

	f.legacy.AddPosts(shelterPost(2151, 727, "bairro", "Centro"))

	report := f.run(t, migration.Options{}, legacy.EntityShelter)
	assert.Equal(t, 1, report.Kind(legacy.EntityShelter).Created)

	shelter, err := f.repos.Shelters.GetByLegacyID(ctx, 2151)
	require.NoError(t, err)
	assert.Equal(t, "Centro", shelter.District)
	assert.Nil(t, shelter.OwnerIdentityID)
	require.NotNil(t, shelter.LegacyEntityID)
	assert.Equal(t, int64(2151), *shelter.LegacyEntityID)

	report = f.run(t, migration.Options{}, legacy.EntityShelter)
	assert.Equal(t, 0, report.Kind(legacy.EntityShelter).Created)
	assert.Equal(t, 1, report.Kind(legacy.EntityShelter).Updated)

	count, err := f.repos.Shelters.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "rerun must not create a second profile")

	entry, err := f.repos.Ledger.Get(ctx, 2151)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Runs)
	assert.Equal(t, shelter.ID, entry.TargetID)
	assert.Equal(t, string(legacy.EntityShelter), entry.Kind)
}

func seedAllKinds(f *fixture) {
	f.legacy.AddPosts(
		shelterPost(100, 7, "bairro", "Centro", "estado", "MG", "tipo_abrigo", "Público"),
		shelterPost(101, 8, "bairro", "Savassi", "uf", "sp"),
		testutil.LegacyPost{ID: 200, Author: 9, Type: testutil.PostTypeVolunteer, Title: "Ana", Meta: testutil.Meta("habilidades", "banho, tosa")},
		testutil.LegacyPost{ID: 300, Author: 7, Type: testutil.PostTypeVacancy, Title: "Passeador", Meta: testutil.Meta("abrigo_id", "101", "quantidade", "2")},
		testutil.LegacyPost{ID: 400, Author: 7, Type: testutil.PostTypePopulationEvent, Meta: testutil.Meta("ano", "2023", "mes", "5", "entrada_caes", "4")},
	)
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)
	ctx := t.Context()
	seedAllKinds(f)

	first := f.run(t, migration.Options{})
	assert.Equal(t, 5, first.Totals().Created)
	assert.Zero(t, first.Totals().Failed)

	sheltersBefore, err := f.repos.Shelters.GetAll(ctx)
	require.NoError(t, err)
	eventsBefore, err := f.repos.Events.GetAll(ctx)
	require.NoError(t, err)

	second := f.run(t, migration.Options{})
	assert.Zero(t, second.Totals().Created)
	assert.Equal(t, 5, second.Totals().Updated)

	sheltersAfter, err := f.repos.Shelters.GetAll(ctx)
	require.NoError(t, err)
	eventsAfter, err := f.repos.Events.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, sheltersAfter, len(sheltersBefore))
	require.Len(t, eventsAfter, len(eventsBefore))
	for i := range sheltersBefore {
		before, after := sheltersBefore[i], sheltersAfter[i]
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.Name, after.Name)
		assert.Equal(t, before.District, after.District)
		assert.Equal(t, before.State, after.State)
		assert.Equal(t, before.ShelterType, after.ShelterType)
	}
	assert.Equal(t, eventsBefore[0].ShelterID, eventsAfter[0].ShelterID)
	assert.Equal(t, *eventsBefore[0].EntriesDogs, *eventsAfter[0].EntriesDogs)
}

func TestRunResolvesShelterReferences(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)
	ctx := t.Context()
	seedAllKinds(f)

	f.run(t, migration.Options{})

	referenced, err := f.repos.Shelters.GetByLegacyID(ctx, 101)
	require.NoError(t, err)
	byAuthor, err := f.repos.Shelters.GetByLegacyID(ctx, 100)
	require.NoError(t, err)

	vacancy, err := f.repos.Vacancies.GetByLegacyID(ctx, 300)
	require.NoError(t, err)
	require.NotNil(t, vacancy.ShelterID)
	assert.Equal(t, referenced.ID, *vacancy.ShelterID, "abrigo_id wins over the author")
	assert.Equal(t, 2, vacancy.Quantity)

	event, err := f.repos.Events.GetByLegacyID(ctx, 400)
	require.NoError(t, err)
	assert.Equal(t, byAuthor.ID, event.ShelterID, "author's shelter is the fallback")
	assert.Equal(t, time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC), event.Period.UTC())
}

func TestUnresolvedShelterIsSkipped(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)

	f.legacy.AddPosts(testutil.LegacyPost{ID: 500, Author: 99, Type: testutil.PostTypePopulationEvent, Meta: testutil.Meta("abrigo_id", "12345")})

	report := f.run(t, migration.Options{}, legacy.EntityPopulationEvent)
	assert.Equal(t, 1, report.Kind(legacy.EntityPopulationEvent).Skipped)

	count, err := f.repos.Events.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRerunAppliesPartialUpdate(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)
	ctx := t.Context()

	f.legacy.AddPosts(shelterPost(10, 1, "bairro", "Centro", "telefone", "(31) 3333-4444"))
	f.run(t, migration.Options{}, legacy.EntityShelter)

	owner := uuid.New()
	claimed, err := f.repos.Shelters.ClaimByLegacyID(ctx, 10, owner)
	require.NoError(t, err)
	require.True(t, claimed)

	f.legacy.SetMeta(10, "bairro", testutil.Ptr("Savassi"))
	f.legacy.SetMeta(10, "telefone", testutil.Ptr("null"))
	f.run(t, migration.Options{}, legacy.EntityShelter)

	shelter, err := f.repos.Shelters.GetByLegacyID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Savassi", shelter.District)
	assert.Equal(t, "3133334444", shelter.Phone, "absent attribute must not erase the stored value")
	require.NotNil(t, shelter.OwnerIdentityID)
	assert.Equal(t, owner, *shelter.OwnerIdentityID, "migration never touches the owner")
}

func TestDryRunWritesNothing(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)
	ctx := t.Context()
	seedAllKinds(f)

	report := f.run(t, migration.Options{DryRun: true})
	assert.True(t, report.DryRun)
	assert.Equal(t, 5, report.Totals().Created, "events and vacancies resolve against planned shelters")
	assert.Zero(t, report.Totals().Skipped)

	for _, count := range []func(context.Context) (int64, error){
		f.repos.Shelters.Count, f.repos.Volunteers.Count, f.repos.Vacancies.Count, f.repos.Events.Count,
	} {
		n, err := count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	f.run(t, migration.Options{}, legacy.EntityShelter)
	report = f.run(t, migration.Options{DryRun: true}, legacy.EntityShelter)
	assert.Equal(t, 2, report.Kind(legacy.EntityShelter).Updated)
}

func TestLimitAndBatching(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)

	for id := int64(1); id <= 7; id++ {
		f.legacy.AddPosts(shelterPost(id, id))
	}

	report := f.run(t, migration.Options{Limit: 3, BatchSize: 2}, legacy.EntityShelter)
	assert.Equal(t, 3, report.Kind(legacy.EntityShelter).Created)

	report = f.run(t, migration.Options{BatchSize: 2}, legacy.EntityShelter)
	assert.Equal(t, 4, report.Kind(legacy.EntityShelter).Created)
	assert.Equal(t, 3, report.Kind(legacy.EntityShelter).Updated)
}

func TestDraftsSkippedUnlessIncluded(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)

	draft := shelterPost(1, 1)
	draft.Status = "draft"
	f.legacy.AddPosts(draft, shelterPost(2, 2))

	report := f.run(t, migration.Options{}, legacy.EntityShelter)
	assert.Equal(t, 1, report.Kind(legacy.EntityShelter).Created)
	assert.Equal(t, 1, report.Kind(legacy.EntityShelter).Skipped)

	report = f.run(t, migration.Options{IncludeDrafts: true}, legacy.EntityShelter)
	assert.Equal(t, 1, report.Kind(legacy.EntityShelter).Created)
	assert.Equal(t, 1, report.Kind(legacy.EntityShelter).Updated)
}

// failingShelters fails inserts for one legacy id.
type failingShelters struct {
	repository.ShelterRepository
	failID int64
}

func (r failingShelters) Create(ctx context.Context, row *entities.Shelter) error {
	if row.LegacyEntityID != nil && *row.LegacyEntityID == r.failID {
		return errors.NewStd("disk full")
	}
	return r.ShelterRepository.Create(ctx, row)
}

func TestPerRecordFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	store := testutil.NewStore(t)
	db := store.DB()
	f := newFixture(t, migration.Repositories{
		Shelters:   failingShelters{ShelterRepository: repository.NewShelterRepository(db), failID: 2},
		Volunteers: repository.NewVolunteerRepository(db),
		Vacancies:  repository.NewVacancyRepository(db),
		Events:     repository.NewPopulationEventRepository(db),
	})

	f.legacy.AddPosts(shelterPost(1, 1), shelterPost(2, 2), shelterPost(3, 3))

	report := f.run(t, migration.Options{}, legacy.EntityShelter)
	kind := report.Kind(legacy.EntityShelter)
	assert.Equal(t, 2, kind.Created)
	assert.Equal(t, 1, kind.Failed)
	assert.Equal(t, []int64{2}, kind.FailedIDs)
	assert.True(t, report.HasFailures())

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "Failed legacy ids (shelter): 2")
	assert.Contains(t, out.String(), "TOTAL")
}

func TestSourceReadErrorAbortsRun(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)

	f.legacy.AddPosts(shelterPost(1, 1))
	f.legacy.DropTable("postmeta")

	report, err := f.runner.Run(t.Context(), legacy.AllEntityTypes, migration.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategorySourceRead))
	require.NotNil(t, report)
	assert.Len(t, report.Kinds, 1, "run stops at the first kind")
}

func TestCancelledRun(t *testing.T) {
	t.Parallel()
	f := setupFixture(t)
	f.legacy.AddPosts(shelterPost(1, 1))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := f.runner.Run(ctx, []legacy.EntityType{legacy.EntityShelter}, migration.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}

// staleShelters hides existing rows from the first lookup, as a concurrent
// writer would.
type staleShelters struct {
	repository.ShelterRepository
	hidden *bool
}

func (r staleShelters) GetByLegacyID(ctx context.Context, legacyID int64) (*entities.Shelter, error) {
	if !*r.hidden {
		*r.hidden = true
		return nil, repository.ErrShelterNotFound
	}
	return r.ShelterRepository.GetByLegacyID(ctx, legacyID)
}

func TestWriterRecoversFromConcurrentInsert(t *testing.T) {
	t.Parallel()

	store := testutil.NewStore(t)
	shelters := repository.NewShelterRepository(store.DB())
	ctx := t.Context()

	writer := migration.NewWriter(migration.Repositories{Shelters: shelters}, testutil.Logger())
	rec := &legacy.Record{
		Entity:     legacy.Entity{ID: 77, Type: legacy.EntityShelter, Status: legacy.StatusPublished, Title: "Primeiro"},
		Attributes: legacy.Attributes{},
	}
	first, err := writer.UpsertShelter(ctx, 77, mapping.MapShelter(rec))
	require.NoError(t, err)
	assert.True(t, first.Created)

	hidden := false
	racing := migration.NewWriter(migration.Repositories{Shelters: staleShelters{ShelterRepository: shelters, hidden: &hidden}}, testutil.Logger())
	rec.Entity.Title = "Segundo"
	second, err := racing.UpsertShelter(ctx, 77, mapping.MapShelter(rec))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ProfileID, second.ProfileID)

	count, err := shelters.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := shelters.GetByLegacyID(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, "Segundo", stored.Name)
}
