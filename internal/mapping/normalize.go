// Package mapping translates legacy post metadata into normalized fields.
// Everything here is pure: no I/O and no shared state.
package mapping

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antonholmquist/jason"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
)

// IsAbsent reports whether v carries no data.
func IsAbsent(v string) bool {
	return legacy.IsAbsent(v)
}

// FirstNonAbsent returns the value of the first key holding a non-absent
// value. Later keys are consulted only when earlier ones are absent, so an
// explicit "0" or "false" wins over a fallback.
func FirstNonAbsent(attrs legacy.Attributes, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := attrs.Get(key); ok && !IsAbsent(v) {
			return v, true
		}
	}
	return "", false
}

// Text trims v and collapses internal runs of whitespace to one space.
func Text(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// Digits keeps only the ASCII digits of v.
func Digits(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Count parses a population count. Absent or unparsable values and
// negatives yield 0. A zero fractional part ("12,0", "12.0") is accepted.
func Count(v string) int {
	n, _ := ParseCount(v)
	return n
}

// ParseCount is Count that also reports whether v held a usable number.
func ParseCount(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if IsAbsent(v) {
		return 0, false
	}
	if whole, frac, ok := strings.Cut(strings.ReplaceAll(v, ",", "."), "."); ok {
		if strings.Trim(frac, "0") != "" {
			return 0, false
		}
		v = whole
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return max(n, 0), true
}

// List splits a multi-valued field on commas or semicolons, trims each
// segment and drops empty ones. A JSON array of strings is also accepted.
func List(v string) []string {
	if items, ok := jsonList(v); ok {
		return items
	}

	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = Text(part)
		if IsAbsent(part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

// IDList is List restricted to positive integer ids.
func IDList(v string) []int64 {
	items := List(v)
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// jsonList decodes v when it is a JSON array. Numbers are rendered in their
// decimal form so IDList can parse them.
func jsonList(v string) ([]string, bool) {
	trimmed := strings.TrimSpace(v)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	value, err := jason.NewValueFromBytes([]byte(trimmed))
	if err != nil {
		return nil, false
	}
	values, err := value.Array()
	if err != nil {
		return nil, false
	}

	out := make([]string, 0, len(values))
	for _, item := range values {
		if s, err := item.String(); err == nil {
			if s = Text(s); !IsAbsent(s) {
				out = append(out, s)
			}
			continue
		}
		if n, err := item.Int64(); err == nil {
			out = append(out, strconv.FormatInt(n, 10))
		}
	}
	return out, true
}

// Email trims and lower-cases an address.
func Email(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// fold lower-cases v and strips diacritics: "São Paulo" becomes "sao paulo".
func fold(v string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, v)
	if err != nil {
		folded = v
	}
	return strings.ToLower(Text(folded))
}

// states maps folded state names to UF codes.
var states = map[string]string{
	"acre": "AC", "alagoas": "AL", "amapa": "AP", "amazonas": "AM",
	"bahia": "BA", "ceara": "CE", "distrito federal": "DF", "espirito santo": "ES",
	"goias": "GO", "maranhao": "MA", "mato grosso": "MT", "mato grosso do sul": "MS",
	"minas gerais": "MG", "para": "PA", "paraiba": "PB", "parana": "PR",
	"pernambuco": "PE", "piaui": "PI", "rio de janeiro": "RJ", "rio grande do norte": "RN",
	"rio grande do sul": "RS", "rondonia": "RO", "roraima": "RR", "santa catarina": "SC",
	"sao paulo": "SP", "sergipe": "SE", "tocantins": "TO",
}

// validUF holds every UF code.
var validUF = func() map[string]struct{} {
	m := make(map[string]struct{}, len(states))
	for _, uf := range states {
		m[uf] = struct{}{}
	}
	return m
}()

// State normalizes a UF code or full state name to the upper-case UF code.
// A value qualified with its UF ("São Paulo - SP", "Belo Horizonte/MG") is
// resolved segment by segment. Anything else yields "" so it is treated as
// absent.
func State(v string) string {
	if uf := stateSegment(v); uf != "" {
		return uf
	}
	segments := strings.FieldsFunc(v, func(r rune) bool {
		return r == '-' || r == '/' || r == ',' || r == '(' || r == ')'
	})
	if len(segments) < 2 {
		return ""
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if uf := stateSegment(segments[i]); uf != "" {
			return uf
		}
	}
	return ""
}

// stateSegment resolves one UF code or state name.
func stateSegment(v string) string {
	trimmed := strings.ToUpper(Text(v))
	if _, ok := validUF[trimmed]; ok {
		return trimmed
	}
	return states[fold(v)]
}

// Clip truncates v to at most n runes, dropping trailing whitespace left by
// the cut.
func Clip(v string, n int) string {
	if utf8.RuneCountInString(v) <= n {
		return v
	}
	runes := []rune(v)
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace)
}

// numberSeparators split a field holding several numbers or documents. A
// bare "/" is not among them because CNPJs contain one.
var numberSeparators = strings.NewReplacer(" / ", ";", " ou ", ";", " e ", ";", ",", ";", "|", ";")

// FirstDigits returns the digits of the first number in a field that may
// hold several ("11.222.333/0001-81; 44.555.666/0001-99"), cut to n digits.
func FirstDigits(v string, n int) string {
	for _, part := range strings.Split(numberSeparators.Replace(v), ";") {
		if d := Digits(part); d != "" {
			return Clip(d, n)
		}
	}
	return ""
}

// PhoneDigits is FirstDigits for phone fields, where a bare "/" also
// separates numbers: "(11) 3333-4444/98888-7777".
func PhoneDigits(v string, n int) string {
	return FirstDigits(strings.ReplaceAll(v, "/", " / "), n)
}

// shelterTypeKeywords are matched as word prefixes of the folded legacy value.
var shelterTypeKeywords = map[string]entities.ShelterType{
	"mist":          entities.ShelterTypeMixed,
	"parceria":      entities.ShelterTypeMixed,
	"independente":  entities.ShelterTypeIndependent,
	"protetor":      entities.ShelterTypeIndependent,
	"public":        entities.ShelterTypePublic,
	"municipal":     entities.ShelterTypePublic,
	"estadual":      entities.ShelterTypePublic,
	"governamental": entities.ShelterTypePublic,
	"prefeitura":    entities.ShelterTypePublic,
	"privad":        entities.ShelterTypePrivate,
	"private":       entities.ShelterTypePrivate,
	"ong":           entities.ShelterTypePrivate,
	"associacao":    entities.ShelterTypePrivate,
}

// ShelterType classifies a legacy shelter type label. "Público", "publico"
// and "PUBLIC" all map to ShelterTypePublic; a label naming both a public
// and a private keyword ("público-privado") is mixed.
func ShelterType(v string) entities.ShelterType {
	if IsAbsent(v) {
		return entities.ShelterTypeUnknown
	}
	folded := fold(v)
	for _, candidate := range entities.AllShelterTypes {
		if folded == string(candidate) {
			return candidate
		}
	}

	matched := make(map[entities.ShelterType]bool)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		for keyword, kind := range shelterTypeKeywords {
			if strings.HasPrefix(word, keyword) {
				matched[kind] = true
			}
		}
	}

	switch {
	case matched[entities.ShelterTypeMixed],
		matched[entities.ShelterTypePublic] && matched[entities.ShelterTypePrivate]:
		return entities.ShelterTypeMixed
	case matched[entities.ShelterTypeIndependent]:
		return entities.ShelterTypeIndependent
	case matched[entities.ShelterTypePublic]:
		return entities.ShelterTypePublic
	case matched[entities.ShelterTypePrivate]:
		return entities.ShelterTypePrivate
	default:
		return entities.ShelterTypeUnknown
	}
}
