package linker

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/migration"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability/metrics"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/testutil"
)

type linkFixture struct {
	legacy     *testutil.LegacyDB
	source     legacy.Source
	shelters   repository.ShelterRepository
	volunteers repository.VolunteerRepository
	identities repository.IdentityRepository
	runner     *migration.Runner
	metrics    *metrics.LinkerMetrics
}

func setupLinkFixture(t *testing.T) *linkFixture {
	t.Helper()

	store := testutil.NewStore(t)
	db := store.DB()
	legacyDB := testutil.NewLegacyDB(t)
	log := testutil.Logger()

	source := legacy.NewGormSource(legacyDB.DB, legacyDB.Settings)
	repos := migration.Repositories{
		Shelters:   repository.NewShelterRepository(db),
		Volunteers: repository.NewVolunteerRepository(db),
		Vacancies:  repository.NewVacancyRepository(db),
		Events:     repository.NewPopulationEventRepository(db),
	}
	m, err := metrics.NewLinkerMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	return &linkFixture{
		legacy:     legacyDB,
		source:     source,
		shelters:   repos.Shelters,
		volunteers: repos.Volunteers,
		identities: repository.NewIdentityRepository(db),
		runner:     migration.NewRunner(legacy.NewExtractor(source, log), migration.NewWriter(repos, log), nil, log),
		metrics:    m,
	}
}

func (f *linkFixture) migrate(t *testing.T) {
	t.Helper()
	_, err := f.runner.Run(t.Context(), []legacy.EntityType{legacy.EntityShelter, legacy.EntityVolunteer}, migration.Options{})
	require.NoError(t, err)
}

func (f *linkFixture) linker(policy CandidatePolicy) *Linker {
	return New(f.source, f.shelters, f.volunteers, policy, f.metrics, testutil.Logger())
}

func (f *linkFixture) identity(t *testing.T, email string, authorID *int64) *entities.Identity {
	t.Helper()
	identity, _, err := f.identities.GetOrCreate(t.Context(), email, authorID)
	require.NoError(t, err)
	return identity
}

func (f *linkFixture) outcomeCount(t *testing.T, kind legacy.EntityType, status Status) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, f.metrics.OutcomesTotal.WithLabelValues(string(kind), string(status)).Write(&pb))
	return pb.GetCounter().GetValue()
}

func statuses(outcomes []Outcome) map[legacy.EntityType]Status {
	m := make(map[legacy.EntityType]Status, len(outcomes))
	for _, o := range outcomes {
		m[o.Kind] = o.Status
	}
	return m
}

func seedAuthor(f *linkFixture, authorID int64, email string) {
	f.legacy.AddUser(authorID, email)
	f.legacy.AddPosts(
		testutil.LegacyPost{ID: 100, Author: authorID, Type: testutil.PostTypeShelter, Title: "Abrigo Esperança"},
		testutil.LegacyPost{ID: 200, Author: authorID, Type: testutil.PostTypeVolunteer, Title: "Ana"},
	)
}

func TestLinkClaimsProfilesByEmail(t *testing.T) {
	t.Parallel()
	f := setupLinkFixture(t)
	ctx := t.Context()

	seedAuthor(f, 7, "Ana@Example.org")
	f.migrate(t)

	identity := f.identity(t, "ana@example.org", nil)
	outcomes, err := f.linker(nil).Link(ctx, identity)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, map[legacy.EntityType]Status{
		legacy.EntityShelter:   Linked,
		legacy.EntityVolunteer: Linked,
	}, statuses(outcomes))
	assert.Equal(t, int64(100), outcomes[0].LegacyEntityID)

	shelter, err := f.shelters.GetByLegacyID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, shelter.OwnerIdentityID)
	assert.Equal(t, identity.ID, *shelter.OwnerIdentityID)

	volunteer, err := f.volunteers.GetByLegacyID(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, volunteer.OwnerIdentityID)
	assert.Equal(t, identity.ID, *volunteer.OwnerIdentityID)

	assert.InDelta(t, 1, f.outcomeCount(t, legacy.EntityShelter, Linked), 0)
}

func TestLinkIsRepeatable(t *testing.T) {
	t.Parallel()
	f := setupLinkFixture(t)
	ctx := t.Context()

	seedAuthor(f, 7, "ana@example.org")
	f.migrate(t)

	identity := f.identity(t, "ana@example.org", nil)
	l := f.linker(nil)
	_, err := l.Link(ctx, identity)
	require.NoError(t, err)

	outcomes, err := l.Link(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, map[legacy.EntityType]Status{
		legacy.EntityShelter:   AlreadyLinked,
		legacy.EntityVolunteer: AlreadyLinked,
	}, statuses(outcomes))

	count, err := f.shelters.CountByOwner(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLinkNeverReassignsOwner(t *testing.T) {
	t.Parallel()
	f := setupLinkFixture(t)
	ctx := t.Context()

	seedAuthor(f, 7, "ana@example.org")
	f.migrate(t)

	first := f.identity(t, "ana@example.org", nil)
	_, err := f.linker(nil).Link(ctx, first)
	require.NoError(t, err)

	// A second identity claiming the same legacy author.
	second := f.identity(t, "ana.silva@example.org", testutil.Ptr[int64](7))
	outcomes, err := f.linker(nil).Link(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, AlreadyLinked, statuses(outcomes)[legacy.EntityShelter])

	shelter, err := f.shelters.GetByLegacyID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *shelter.OwnerIdentityID)

	_, err = f.shelters.GetByOwner(ctx, second.ID)
	assert.ErrorIs(t, err, repository.ErrShelterNotFound)
}

func TestLinkWithoutCandidateIsSilent(t *testing.T) {
	t.Parallel()
	f := setupLinkFixture(t)
	ctx := t.Context()

	seedAuthor(f, 7, "ana@example.org")
	f.migrate(t)

	tests := []struct {
		name     string
		email    string
		authorID *int64
	}{
		{"unknown email", "nobody@example.org", nil},
		{"author without posts", "other@example.org", testutil.Ptr[int64](99)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := f.identity(t, tt.email, tt.authorID)
			outcomes, err := f.linker(nil).Link(ctx, identity)
			require.NoError(t, err)
			assert.Equal(t, map[legacy.EntityType]Status{
				legacy.EntityShelter:   NoCandidate,
				legacy.EntityVolunteer: NoCandidate,
			}, statuses(outcomes))
		})
	}

	shelter, err := f.shelters.GetByLegacyID(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, shelter.OwnerIdentityID)
}

func TestLinkBeforeMigrationFindsNothing(t *testing.T) {
	t.Parallel()
	f := setupLinkFixture(t)

	seedAuthor(f, 7, "ana@example.org")

	identity := f.identity(t, "ana@example.org", nil)
	outcomes, err := f.linker(nil).Link(t.Context(), identity)
	require.NoError(t, err)
	assert.Equal(t, NoCandidate, statuses(outcomes)[legacy.EntityShelter])
	assert.Equal(t, int64(100), outcomes[0].LegacyEntityID)
}

func TestLinkPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy CandidatePolicy
		want   int64
	}{
		{"first match", FirstMatch{}, 100},
		{"most recent published", MostRecentPublished{}, 105},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := setupLinkFixture(t)
			ctx := t.Context()

			f.legacy.AddUser(7, "ana@example.org")
			f.legacy.AddPosts(
				testutil.LegacyPost{ID: 100, Author: 7, Type: testutil.PostTypeShelter,
					Date: time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)},
				testutil.LegacyPost{ID: 105, Author: 7, Type: testutil.PostTypeShelter,
					Date: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)},
			)
			f.migrate(t)

			identity := f.identity(t, "ana@example.org", nil)
			outcomes, err := f.linker(tt.policy).Link(ctx, identity)
			require.NoError(t, err)
			assert.Equal(t, Linked, outcomes[0].Status)
			assert.Equal(t, tt.want, outcomes[0].LegacyEntityID)
			assert.Equal(t, 2, outcomes[0].Candidates)

			owned, err := f.shelters.GetByOwner(ctx, identity.ID)
			require.NoError(t, err)
			require.NotNil(t, owned.LegacyEntityID)
			assert.Equal(t, tt.want, *owned.LegacyEntityID)

			// The identity already owns a shelter; the other one stays free.
			outcomes, err = f.linker(FirstMatch{}).Link(ctx, identity)
			require.NoError(t, err)
			assert.Equal(t, AlreadyLinked, outcomes[0].Status)

			count, err := f.shelters.CountByOwner(ctx, identity.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestLinkSourceFailure(t *testing.T) {
	t.Parallel()
	f := setupLinkFixture(t)

	seedAuthor(f, 7, "ana@example.org")
	f.migrate(t)
	f.legacy.DropTable("posts")

	identity := f.identity(t, "ana@example.org", testutil.Ptr[int64](7))
	_, err := f.linker(nil).Link(t.Context(), identity)
	require.Error(t, err)
}

func TestMostRecentPublishedChoose(t *testing.T) {
	t.Parallel()

	jan := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		candidates []legacy.Entity
		want       int64
		ok         bool
	}{
		{"empty", nil, 0, false},
		{"newest wins", []legacy.Entity{
			{ID: 1, Status: legacy.StatusPublished, CreatedAt: dec},
			{ID: 2, Status: legacy.StatusPublished, CreatedAt: jan},
		}, 1, true},
		{"drafts ignored", []legacy.Entity{
			{ID: 1, Status: legacy.StatusPublished, CreatedAt: jan},
			{ID: 2, Status: legacy.StatusDraft, CreatedAt: dec},
		}, 1, true},
		{"tie takes higher id", []legacy.Entity{
			{ID: 4, Status: legacy.StatusPublished, CreatedAt: jan},
			{ID: 9, Status: legacy.StatusPublished, CreatedAt: jan},
		}, 9, true},
		{"no published falls back to lowest id", []legacy.Entity{
			{ID: 8, Status: legacy.StatusDraft, CreatedAt: dec},
			{ID: 3, Status: legacy.StatusDraft, CreatedAt: jan},
		}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MostRecentPublished{}.Choose(tt.candidates)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestFirstMatchChoose(t *testing.T) {
	t.Parallel()

	_, ok := FirstMatch{}.Choose(nil)
	assert.False(t, ok)

	got, ok := FirstMatch{}.Choose([]legacy.Entity{
		{ID: 2151}, {ID: 7}, {ID: 1 << 40}, {ID: 300},
	})
	require.True(t, ok)
	assert.Equal(t, int64(7), got.ID)
}

func TestPolicyByName(t *testing.T) {
	t.Parallel()

	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, "first_match", p.Name())

	p, err = PolicyByName("most_recent_published")
	require.NoError(t, err)
	assert.IsType(t, MostRecentPublished{}, p)

	_, err = PolicyByName("random")
	assert.Error(t, err)
}
