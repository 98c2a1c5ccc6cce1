package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"countryview/pkg/domain"
)

var (
	capitalPath    = jp.MustParseString("$.capital")
	regionPath     = jp.MustParseString("$.region")
	populationPath = jp.MustParseString("$.population")
	areaPath       = jp.MustParseString("$.area")
)

// translationPaths builds child-only expressions so that any language key is
// taken literally.
func translationPaths(lang string) (common, official jp.Expr) {
	if lang == "" {
		lang = "spa"
	}
	return jp.C("translations").C(lang).C("common"), jp.C("translations").C(lang).C("official")
}

// Normalizer turns one raw API record into a domain.Country.
type Normalizer struct {
	common   jp.Expr
	official jp.Expr
}

// NewNormalizer returns a Normalizer reading localized names in lang.
func NewNormalizer(lang string) Normalizer {
	c, o := translationPaths(lang)
	return Normalizer{common: c, official: o}
}

// Normalize extracts the grouping-file fields from raw. Missing text at any
// level becomes domain.NotAvailable; missing numbers become 0.
func Normalize(raw any, lang string) domain.Country {
	return NewNormalizer(lang).Normalize(raw)
}

// Normalize implements the record mapping for the configured language.
func (n Normalizer) Normalize(raw any) domain.Country {
	pop := number(populationPath.First(raw))
	area := number(areaPath.First(raw))
	return domain.Country{
		CommonName:    text(n.common.First(raw)),
		OfficialName:  text(n.official.First(raw)),
		Capital:       capital(capitalPath.First(raw)),
		Region:        text(regionPath.First(raw)),
		PopulationRaw: strconv.FormatInt(pop, 10),
		AreaRaw:       strconv.FormatInt(area, 10),
		Population:    pop,
		Area:          area,
	}
}

func text(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return domain.NotAvailable
	}
	return s
}

func capital(v any) string {
	switch c := v.(type) {
	case string:
		return text(c)
	case []any:
		parts := make([]string, 0, len(c))
		for _, p := range c {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return domain.NotAvailable
		}
		return strings.Join(parts, ", ")
	default:
		return domain.NotAvailable
	}
}

// number truncates toward zero; non-numeric, NaN and out-of-range values are 0.
func number(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0
		}
		return int64(n)
	default:
		return 0
	}
}
