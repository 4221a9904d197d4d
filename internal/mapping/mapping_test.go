package mapping

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
)

func attrs(pairs ...string) legacy.Attributes {
	a := legacy.Attributes{}
	for i := 0; i < len(pairs); i += 2 {
		v := pairs[i+1]
		if IsAbsent(v) {
			a[pairs[i]] = nil
			continue
		}
		a[pairs[i]] = &v
	}
	return a
}

func record(id int64, title string, a legacy.Attributes) *legacy.Record {
	return &legacy.Record{
		Entity: legacy.Entity{
			ID:        id,
			AuthorID:  727,
			Type:      legacy.EntityShelter,
			Status:    legacy.StatusPublished,
			Title:     title,
			CreatedAt: time.Date(2022, time.March, 9, 14, 30, 0, 0, time.UTC),
		},
		Attributes: a,
	}
}

func TestFirstNonAbsentPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		attrs  legacy.Attributes
		want   string
		wantOK bool
	}{
		{"empty primary falls through", attrs("primary", "", "secondary", "X"), "X", true},
		{"null primary falls through", attrs("primary", "null", "secondary", "X"), "X", true},
		{"missing primary falls through", attrs("secondary", "X"), "X", true},
		{"zero is respected", attrs("primary", "0", "secondary", "X"), "0", true},
		{"false is respected", attrs("primary", "false", "secondary", "X"), "false", true},
		{"all absent", attrs("primary", " ", "secondary", "NULL"), "", false},
		{"nothing stored", legacy.Attributes{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := FirstNonAbsent(tt.attrs, "primary", "secondary")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Abrigo São Francisco", Text("  Abrigo   São\tFrancisco \n"))
	assert.Equal(t, "31987654321", Digits("(31) 98765-4321"))
	assert.Equal(t, "12345678000190", Digits("12.345.678/0001-90"))
	assert.Equal(t, "joana@example.org", Email("  Joana@Example.ORG "))
}

func TestCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"12", 12, true},
		{" 7 ", 7, true},
		{"0", 0, true},
		{"12,0", 12, true},
		{"12.00", 12, true},
		{"-4", 0, true},
		{"12,5", 0, false},
		{"doze", 0, false},
		{"", 0, false},
		{"null", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseCount(tt.in)
		assert.Equal(t, tt.want, got, "ParseCount(%q)", tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseCount(%q) ok", tt.in)
		assert.Equal(t, tt.want, Count(tt.in), "Count(%q)", tt.in)
	}
}

func TestListSplitting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"banho", "passeio", "transporte"}, List("banho, passeio,,  transporte ;"))
	assert.Equal(t, []string{"a", "b"}, List(`["a", " b ", ""]`))
	assert.Empty(t, List(" , ; "))

	assert.Equal(t, []int64{12, 34, 56}, IDList("12, 34,, x, -1, 56"))
	assert.Equal(t, []int64{5, 9}, IDList("[5, \"9\"]"))
	assert.Empty(t, IDList(""))
}

func TestState(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"mg":                  "MG",
		" SP ":                "SP",
		"São Paulo":           "SP",
		"minas gerais":        "MG",
		"Paraná":              "PR",
		"Pará":                "PA",
		"SÃO PAULO - SP":      "SP",
		"Belo Horizonte/MG":   "MG",
		"Rio de Janeiro (RJ)": "RJ",
		"xx":                  "",
		"Exterior":            "",
		"Região Sudeste":      "",
	} {
		assert.Equal(t, want, State(in), "State(%q)", in)
	}
}

func TestUnrecognizedStateIsAbsent(t *testing.T) {
	t.Parallel()

	_, ok := StateCode(attrs("estado", "Grande São Paulo e região"))
	assert.False(t, ok)

	mapped := MapShelter(record(11, "Abrigo", attrs("estado", "Zona Leste da capital")))
	assert.Empty(t, mapped.Row.State)
	assert.NotContains(t, mapped.Fields, "state")

	mapped = MapShelter(record(12, "Abrigo", attrs("estado", "SÃO PAULO - SP")))
	assert.Equal(t, "SP", mapped.Row.State)
	assert.Equal(t, "SP", mapped.Fields["state"])
}

func TestMappedValuesFitColumns(t *testing.T) {
	t.Parallel()

	longName := strings.Repeat("Abrigo São Francisco ", 20)
	rec := record(13, "", attrs(
		"nome_abrigo", longName,
		"telefone", "(11) 3333-4444 / (11) 98888-7777",
		"cnpj", "11.222.333/0001-81; 44.555.666/0001-99",
		"bairro", strings.Repeat("Jardim ", 30),
		"cidade", strings.Repeat("São José ", 20),
	))

	row := MapShelter(rec).Row
	assert.Equal(t, "1133334444", row.Phone)
	assert.Equal(t, "11222333000181", row.Document)
	assert.LessOrEqual(t, utf8.RuneCountInString(row.Name), NameSize)
	assert.LessOrEqual(t, utf8.RuneCountInString(row.District), PlaceSize)
	assert.LessOrEqual(t, utf8.RuneCountInString(row.City), PlaceSize)
	assert.True(t, strings.HasPrefix(longName, row.Name))

	vol := MapVolunteer(record(14, "Ana", attrs("celular", "31 91234-5678/31 3222-1111")))
	assert.Equal(t, "31912345678", vol.Row.Phone)

	assert.Equal(t, "12345678901234567890", FirstDigits("1234567890 1234567890 12345", DocumentSize))
	assert.Equal(t, "ação", Clip("ação entre amigos", 4))
	assert.Equal(t, "curto", Clip("curto", 10))
}

func TestShelterType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]entities.ShelterType{
		"Público":               entities.ShelterTypePublic,
		"publico":               entities.ShelterTypePublic,
		"Abrigo Municipal":      entities.ShelterTypePublic,
		"Privado":               entities.ShelterTypePrivate,
		"ONG":                   entities.ShelterTypePrivate,
		"Associação protetora":  entities.ShelterTypeIndependent,
		"Misto":                 entities.ShelterTypeMixed,
		"Público-Privado":       entities.ShelterTypeMixed,
		"Protetor independente": entities.ShelterTypeIndependent,
		"private":               entities.ShelterTypePrivate,
		"longe daqui":           entities.ShelterTypeUnknown,
		"":                      entities.ShelterTypeUnknown,
	} {
		assert.Equal(t, want, ShelterType(in), "ShelterType(%q)", in)
	}
}

func TestMapShelterScenario(t *testing.T) {
	t.Parallel()

	rec := record(2151, "Abrigo do Centro", attrs("bairro", "Centro"))
	mapped := MapShelter(rec)

	require.NotNil(t, mapped.Row)
	assert.Equal(t, "Centro", mapped.Row.District)
	assert.Equal(t, "Abrigo do Centro", mapped.Row.Name, "name falls back to the post title")
	assert.Equal(t, entities.ShelterTypeUnknown, mapped.Row.ShelterType)
	assert.Equal(t, rec.Entity.CreatedAt, mapped.Row.RegisteredAt)
	assert.Nil(t, mapped.Row.OwnerIdentityID)

	assert.Equal(t, "Centro", mapped.Fields["district"])
	assert.NotContains(t, mapped.Fields, "phone")
	assert.NotContains(t, mapped.Fields, "state")
	assert.NotContains(t, mapped.Fields, "shelter_type")
}

func TestMapShelterFallbacks(t *testing.T) {
	t.Parallel()

	rec := record(10, "Título", attrs(
		"nome_abrigo", "null",
		"nome", "Abrigo Esperança",
		"telefone", "",
		"whatsapp", "(31) 99999-0000",
		"cnpj", "12.345.678/0001-90",
		"cpf", "111.222.333-44",
		"estado", "Minas Gerais",
		"tipo_abrigo", "ONG",
		"colaboradores", "31, 44, ,abc",
		"data_cadastro", "2019-06-01",
	))

	mapped := MapShelter(rec)
	row := mapped.Row
	assert.Equal(t, "Abrigo Esperança", row.Name)
	assert.Equal(t, "31999990000", row.Phone)
	assert.Equal(t, "12345678000190", row.Document)
	assert.Equal(t, "MG", row.State)
	assert.Equal(t, entities.ShelterTypePrivate, row.ShelterType)
	assert.Equal(t, entities.IDList{31, 44}, row.Collaborators)
	assert.Equal(t, time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC), row.RegisteredAt)
	assert.Equal(t, entities.IDList{31, 44}, mapped.Fields["collaborators"])
}

func TestMapVolunteer(t *testing.T) {
	t.Parallel()

	rec := record(20, "Ana Souza", attrs(
		"celular", "31 91234-5678",
		"email", "ANA@example.org",
		"uf", "rj",
		"habilidades", "fotografia; transporte",
	))

	mapped := MapVolunteer(rec)
	assert.Equal(t, "Ana Souza", mapped.Row.Name)
	assert.Equal(t, "31912345678", mapped.Row.Phone)
	assert.Equal(t, "ana@example.org", mapped.Row.Email)
	assert.Equal(t, "RJ", mapped.Row.State)
	assert.Equal(t, entities.StringList{"fotografia", "transporte"}, mapped.Row.Skills)
	assert.NotContains(t, mapped.Fields, "availability")
}

func TestMapVacancy(t *testing.T) {
	t.Parallel()

	rec := record(30, "Passeador", attrs("quantidade", "3", "descricao", "  Passeios aos sábados  ", "abrigo_id", "2151"))

	mapped := MapVacancy(rec)
	assert.Equal(t, "Passeador", mapped.Row.Title)
	assert.Equal(t, 3, mapped.Row.Quantity)
	assert.Equal(t, "Passeios aos sábados", mapped.Row.Description)

	ref, ok := ShelterRef(rec.Attributes)
	assert.True(t, ok)
	assert.Equal(t, int64(2151), ref)

	_, ok = ShelterRef(attrs("abrigo_id", "null"))
	assert.False(t, ok)
}

func TestMapPopulationEvent(t *testing.T) {
	t.Parallel()

	rec := record(40, "", attrs(
		"ano", "2023",
		"mes", "7",
		"entrada_caes", "10",
		"entrada_gatos", "",
		"adocao_caes", "0",
		"obito_gatos", "dois",
	))

	mapped := MapPopulationEvent(rec)
	row := mapped.Row
	assert.Equal(t, time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC), row.Period)
	require.NotNil(t, row.EntriesDogs)
	assert.Equal(t, 10, *row.EntriesDogs)
	assert.Nil(t, row.EntriesCats)
	require.NotNil(t, row.AdoptionsDogs)
	assert.Equal(t, 0, *row.AdoptionsDogs)
	assert.Nil(t, row.NaturalDeathsCats, "unparsable count stays null")

	assert.Equal(t, 10, mapped.Fields["entries_dogs"])
	assert.Equal(t, 0, mapped.Fields["adoptions_dogs"])
	assert.NotContains(t, mapped.Fields, "entries_cats")
	assert.NotContains(t, mapped.Fields, "natural_deaths_cats")
}

func TestPeriodFallbacks(t *testing.T) {
	t.Parallel()

	march2022 := time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		attrs legacy.Attributes
		want  time.Time
	}{
		{"year and month", attrs("ano", "2021", "mes", "12"), time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC)},
		{"invalid month uses reference date", attrs("ano", "2021", "mes", "13", "data_referencia", "2020-05-17"), time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)},
		{"brazilian date", attrs("data_referencia", "17/08/2020"), time.Date(2020, time.August, 1, 0, 0, 0, 0, time.UTC)},
		{"month only", attrs("data_referencia", "2020-02"), time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC)},
		{"falls back to post date", attrs("ano", "2021"), march2022},
		{"garbage reference date", attrs("data_referencia", "ontem"), march2022},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Period(record(1, "", tt.attrs)))
		})
	}
}

func TestCountKeysCoverEveryColumn(t *testing.T) {
	t.Parallel()

	keys := CountKeys()
	assert.Len(t, keys, 12)
	assert.Contains(t, keys, "retorno_origem_gatos")
}
