package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baja-recommender/types"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Redacción del Proyecto":        "redaccion del proyecto",
		"  Pérgola   FOTOVOLTAICA (L-2)": "pergola fotovoltaica l 2",
		"Señalización/Vía pública":      "senalizacion via publica",
		"":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestExtract_ContextualBigrams(t *testing.T) {
	ex := NewExtractor(nil)

	set := ex.Extract("Redacción del proyecto y ejecución de las obras de reforma")
	terms := set.Terms()

	assert.Contains(t, terms, "redaccion proyecto")
	assert.Contains(t, terms, "ejecucion obras")
	assert.Equal(t, []string{"redaccion proyecto", "ejecucion obras", "reforma"}, terms)
	assert.Equal(t, types.TierContextualBigram, set[0].Tier)
	assert.Equal(t, types.TierLongWord, set[2].Tier)
}

func TestExtract_Deterministic(t *testing.T) {
	ex := NewExtractor(nil)
	title := "Suministro e instalación de pérgolas fotovoltaicas en el polideportivo municipal"

	first := ex.Extract(title)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ex.Extract(title))
	}
}

func TestExtract_TechnicalBigramFirst(t *testing.T) {
	ex := NewExtractor(nil)

	set := ex.Extract("Servicio de mantenimiento preventivo del alumbrado público y climatización")
	require.NotEmpty(t, set)

	assert.Equal(t, types.Keyword{Term: "mantenimiento preventivo", Tier: types.TierTechnicalBigram}, set[0])
	assert.Equal(t, types.Keyword{Term: "alumbrado publico", Tier: types.TierTechnicalBigram}, set[1])
	assert.Contains(t, set, types.Keyword{Term: "climatizacion", Tier: types.TierDomainNoun})
}

func TestExtract_DomainNounInsidePhrase(t *testing.T) {
	ex := NewExtractor(nil)

	set := ex.Extract("Instalación fotovoltaica en el colegio")
	assert.Equal(t, types.KeywordSet{
		{Term: "instalacion fotovoltaica", Tier: types.TierTechnicalBigram},
		{Term: "fotovoltaica", Tier: types.TierDomainNoun},
		{Term: "colegio", Tier: types.TierLongWord},
	}, set)

	// 上下文短语中的领域名词同样保留，短语里的其他词不再补位
	terms := ex.Extract("Obras de urbanización del sector norte").Terms()
	assert.Equal(t, []string{"obras urbanizacion", "urbanizacion", "sector", "norte"}, terms)

	text := ex.MatchText("Suministro de placas fotovoltaicas")
	assert.Equal(t, []string{"fotovoltaica"}, Matched(set, text))
}

func TestExtract_FillerGap(t *testing.T) {
	rules := DefaultRuleset()
	rules.MaxFillerGap = 0
	ex := NewExtractor(rules)

	// "direccion de obra" 需要跳过一个虚词
	terms := ex.Extract("Direccion de obra").Terms()
	assert.NotContains(t, terms, "direccion obra")

	terms = NewExtractor(nil).Extract("Direccion de obra").Terms()
	assert.Equal(t, []string{"direccion obra"}, terms)
}

func TestExtract_CapsAndLongestFill(t *testing.T) {
	ex := NewExtractor(nil)

	set := ex.Extract("Adquisición desfibriladores portátiles, camillas, botiquines homologados y señalética")
	assert.Len(t, set, 5)
	// 最长的在前
	assert.Equal(t, "desfibriladores", set[0].Term)
	for _, k := range set {
		assert.Equal(t, types.TierLongWord, k.Tier)
	}
}

func TestExtract_EmptyAndShort(t *testing.T) {
	ex := NewExtractor(nil)

	assert.Empty(t, ex.Extract(""))
	assert.Empty(t, ex.Extract("de la y"))
	assert.Empty(t, ex.Extract("Obras lote 2"))
}

func TestMatched(t *testing.T) {
	ex := NewExtractor(nil)
	set := ex.Extract("Redacción del proyecto y ejecución de las obras de reforma")

	text := ex.MatchText("EJECUCIÓN DE LAS OBRAS de reforma del mercado")
	assert.Equal(t, []string{"ejecucion obras", "reforma"}, Matched(set, text))

	assert.Empty(t, Matched(set, ex.MatchText("Suministro de papel")))
	assert.Empty(t, Matched(types.KeywordSet{}, text))
}

func TestLoadRuleset(t *testing.T) {
	r, err := LoadRuleset("")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Version)
	assert.Equal(t, 5, r.MaxKeywords)

	_, err = LoadRuleset("/nonexistent/rules.yaml")
	assert.Error(t, err)

	custom, err := ParseRuleset([]byte("technical_bigrams: [\"Cámara térmica\"]\n"))
	require.NoError(t, err)
	assert.True(t, custom.isTechnical("camara", "termica"))
	assert.Equal(t, 3, custom.MaxFillerGap)
	assert.Equal(t, 5, custom.MaxKeywords)
}
