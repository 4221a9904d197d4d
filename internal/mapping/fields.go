package mapping

import (
	"strconv"
	"strings"
	"time"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
)

// Legacy metadata keys. Where a field has several keys they are listed in
// fallback order.
var (
	ShelterNameKeys     = []string{"nome_abrigo", "nome"}
	ShelterTypeKeys     = []string{"tipo_abrigo", "tipo"}
	ShelterDocumentKeys = []string{"cnpj", "cpf"}
	ShelterPhoneKeys    = []string{"telefone", "whatsapp", "celular"}
	ShelterEmailKeys    = []string{"email", "email_contato"}
	ShelterDistrictKeys = []string{"bairro"}
	ShelterCityKeys     = []string{"cidade", "municipio"}
	StateKeys           = []string{"estado", "uf"}
	CollaboratorKeys    = []string{"colaboradores"}
	RegisteredAtKeys    = []string{"data_cadastro"}

	VolunteerNameKeys  = []string{"nome", "nome_completo"}
	VolunteerPhoneKeys = []string{"telefone", "celular", "whatsapp"}
	VolunteerSkillKeys = []string{"habilidades", "areas_interesse"}
	AvailabilityKeys   = []string{"disponibilidade"}

	VacancyTitleKeys    = []string{"titulo"}
	VacancyTextKeys     = []string{"descricao"}
	VacancyQuantityKeys = []string{"quantidade", "vagas"}

	ShelterRefKeys = []string{"abrigo_id", "id_abrigo"}
	YearKeys       = []string{"ano"}
	MonthKeys      = []string{"mes"}
	PeriodKeys     = []string{"data_referencia"}
)

// Column widths of the normalized store. Mapped values never exceed them.
const (
	NameSize     = 255
	DocumentSize = 20
	PhoneSize    = 20
	EmailSize    = 320
	PlaceSize    = 120
)

// clipped resolves keys, applies Text and cuts the result to n runes.
func clipped(attrs legacy.Attributes, keys []string, n int) (string, bool) {
	return normalized(attrs, keys, func(v string) string { return Clip(Text(v), n) })
}

// phone resolves keys and keeps the digits of the first phone number.
func phone(attrs legacy.Attributes, keys []string) (string, bool) {
	return normalized(attrs, keys, func(v string) string { return PhoneDigits(v, PhoneSize) })
}

// email resolves keys and applies Email, cut to the column width.
func email(attrs legacy.Attributes, keys []string) (string, bool) {
	return normalized(attrs, keys, func(v string) string { return Clip(Email(v), EmailSize) })
}

// normalized resolves keys and applies fn, treating an empty result as absent.
func normalized(attrs legacy.Attributes, keys []string, fn func(string) string) (string, bool) {
	v, ok := FirstNonAbsent(attrs, keys...)
	if !ok {
		return "", false
	}
	v = fn(v)
	return v, v != ""
}

// titleFallback resolves keys, falling back to the post title.
func titleFallback(rec *legacy.Record, keys []string) (string, bool) {
	if v, ok := clipped(rec.Attributes, keys, NameSize); ok {
		return v, true
	}
	if IsAbsent(rec.Entity.Title) {
		return "", false
	}
	return Clip(Text(rec.Entity.Title), NameSize), true
}

// ShelterName returns the display name: nome_abrigo, nome, then the post title.
func ShelterName(rec *legacy.Record) (string, bool) {
	return titleFallback(rec, ShelterNameKeys)
}

// ShelterKind returns the shelter type from tipo_abrigo or tipo.
func ShelterKind(attrs legacy.Attributes) (entities.ShelterType, bool) {
	v, ok := FirstNonAbsent(attrs, ShelterTypeKeys...)
	if !ok {
		return entities.ShelterTypeUnknown, false
	}
	return ShelterType(v), true
}

// ShelterDocument returns the CNPJ, else the CPF, as digits. Only the first
// document of a multi-valued field is kept.
func ShelterDocument(attrs legacy.Attributes) (string, bool) {
	return normalized(attrs, ShelterDocumentKeys, func(v string) string {
		return FirstDigits(v, DocumentSize)
	})
}

// ShelterPhone returns the first number of telefone, whatsapp or celular as
// digits.
func ShelterPhone(attrs legacy.Attributes) (string, bool) {
	return phone(attrs, ShelterPhoneKeys)
}

// ShelterDistrict returns the bairro.
func ShelterDistrict(attrs legacy.Attributes) (string, bool) {
	return clipped(attrs, ShelterDistrictKeys, PlaceSize)
}

// StateCode returns the UF from estado or uf. A value that names no UF is
// absent.
func StateCode(attrs legacy.Attributes) (string, bool) {
	return normalized(attrs, StateKeys, State)
}

// Collaborators returns the legacy author ids listed in colaboradores.
func Collaborators(attrs legacy.Attributes) ([]int64, bool) {
	v, ok := FirstNonAbsent(attrs, CollaboratorKeys...)
	if !ok {
		return nil, false
	}
	ids := IDList(v)
	return ids, len(ids) > 0
}

// ShelterRef returns the legacy id of the shelter a vacancy or population
// report belongs to, when the post names one.
func ShelterRef(attrs legacy.Attributes) (int64, bool) {
	v, ok := FirstNonAbsent(attrs, ShelterRefKeys...)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(Digits(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// dateLayouts are the formats seen in legacy date metadata.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01",
	"02/01/2006",
	"01/2006",
	"20060102",
}

// parseDate parses a legacy date in any known layout as UTC.
func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// monthStart truncates t to the first day of its month in UTC.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Period returns the reporting month of a population report: ano and mes
// when both parse, else data_referencia, else the post date.
func Period(rec *legacy.Record) time.Time {
	attrs := rec.Attributes
	if y, ok := FirstNonAbsent(attrs, YearKeys...); ok {
		if m, ok := FirstNonAbsent(attrs, MonthKeys...); ok {
			year, yerr := strconv.Atoi(strings.TrimSpace(y))
			month, merr := strconv.Atoi(strings.TrimSpace(m))
			if yerr == nil && merr == nil && month >= 1 && month <= 12 && year > 0 {
				return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			}
		}
	}
	if v, ok := FirstNonAbsent(attrs, PeriodKeys...); ok {
		if t, ok := parseDate(v); ok {
			return monthStart(t)
		}
	}
	return monthStart(rec.Entity.CreatedAt)
}

// registeredAt returns data_cadastro when it parses, else the post date.
func registeredAt(rec *legacy.Record) time.Time {
	if v, ok := FirstNonAbsent(rec.Attributes, RegisteredAtKeys...); ok {
		if t, ok := parseDate(v); ok {
			return t
		}
	}
	return rec.Entity.CreatedAt.UTC()
}
