package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"baja-recommender/types"
)

// dryRunDB 只生成 SQL，不连接数据库
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

func toSQL(db *gorm.DB, q types.BidQuery) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []Adjudicacion
		return buildQuery(tx.Model(&Adjudicacion{}), q).Find(&rows)
	})
}

func TestBuildQuery_AllFilters(t *testing.T) {
	lo, hi := 70000.0, 130000.0
	sql := toSQL(dryRunDB(t), types.BidQuery{
		ClassificationPrefix: "4521",
		BudgetMin:            &lo,
		BudgetMax:            &hi,
		Years:                []int{2026, 2025},
		Region:               "Madrid",
		Buyer:                "Ayuntamiento de Getafe",
		Keywords:             []string{"ejecucion obras", "reforma"},
		Limit:                300,
	})

	assert.Contains(t, sql, `FROM "adjudicaciones_metabase"`)
	assert.Contains(t, sql, "cpv::text AS cpv")
	assert.Contains(t, sql, "importe_total <> importe_adjudicacion")
	assert.Contains(t, sql, "cpv::text ~ '(^|[^0-9])4521'")
	assert.Contains(t, sql, "importe_total >= 70000")
	assert.Contains(t, sql, "importe_total <= 130000")
	assert.Contains(t, sql, "EXTRACT(YEAR FROM fecha_publicacion) IN (2026,2025)")
	assert.Contains(t, sql, "'[^a-z0-9]+', ' ', 'g')) LIKE '%madrid%'")
	assert.Contains(t, sql, "LOWER(entidad_compradora) = LOWER('Ayuntamiento de Getafe')")
	assert.Contains(t, sql, "LIKE '%ejecucion%' AND")
	assert.Contains(t, sql, "LIKE '%reforma%'")
	assert.Contains(t, sql, " OR ")
	assert.Contains(t, sql, "ORDER BY fecha_publicacion DESC,id")
	assert.Contains(t, sql, "LIMIT 300")
}

func TestBuildQuery_Unfiltered(t *testing.T) {
	sql := toSQL(dryRunDB(t), types.BidQuery{})

	assert.NotContains(t, sql, "cpv::text ~")
	assert.NotContains(t, sql, "EXTRACT(YEAR")
	assert.NotContains(t, sql, "lower(provincia)")
	assert.NotContains(t, sql, "LIMIT")
	assert.Contains(t, sql, "fecha_publicacion IS NOT NULL")
}

func TestBuildQuery_RegionBothWays(t *testing.T) {
	sql := toSQL(dryRunDB(t), types.BidQuery{Region: " Comunidad de MADRID "})

	// 记录地区包含目标地区
	assert.Contains(t, sql, "LIKE '%comunidad de madrid%'")
	// 目标地区包含记录地区
	assert.Contains(t, sql, "'comunidad de madrid' LIKE '%' || trim(regexp_replace(translate(lower(provincia)")
	assert.Contains(t, sql, "<> ''")

	sql = toSQL(dryRunDB(t), types.BidQuery{Region: "Cádiz"})
	assert.Contains(t, sql, "LIKE '%cadiz%'")
	assert.NotContains(t, sql, "Cádiz")
}

func TestBuildQuery_RejectsNonDigitPrefix(t *testing.T) {
	sql := toSQL(dryRunDB(t), types.BidQuery{ClassificationPrefix: "45'; drop"})
	assert.NotContains(t, sql, "cpv::text ~")
}

func TestCleanAwardee(t *testing.T) {
	cases := map[string]string{
		"":                                     "",
		"Construcciones Pérez SL":              "Construcciones Pérez SL",
		`{"adjudicatario":{"name":"Acme SA"}}`: "Acme SA",
		`{"name":" Obras Norte SL "}`:          "Obras Norte SL",
		`[{"adjudicatario":{"name":"A"}},{"adjudicatario":{"name":"B"}}]`: "A; B",
		`{not json`: "{not json",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanAwardee(in), in)
	}
}

func TestToBid(t *testing.T) {
	total, awarded, n := 100000.0, 80000.0, 4
	pub := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a := Adjudicacion{
		ID:                  42,
		Titulo:              " Reforma del mercado ",
		EntidadCompradora:   "Ayuntamiento de Getafe",
		ImporteTotal:        &total,
		ImporteAdjudicacion: &awarded,
		Adjudicatario:       `{"name":"Acme SA"}`,
		NumeroLicitadores:   &n,
		FechaPublicacion:    &pub,
		Cpv:                 "{45210000,45233000}",
		Provincia:           "Madrid",
	}

	b := a.ToBid()
	assert.Equal(t, "42", b.ID)
	assert.Equal(t, "Reforma del mercado", b.Title)
	assert.Equal(t, []string{"45210000", "45233000"}, b.ClassificationCodes)
	assert.Equal(t, 100000.0, b.BudgetAmount)
	assert.Equal(t, 80000.0, b.AwardedAmount)
	assert.Equal(t, 4, b.BiddersCount)
	assert.Equal(t, "Acme SA", b.Awardee)
	assert.Equal(t, pub, b.PublicationDate)

	empty := (&Adjudicacion{ID: 1}).ToBid()
	assert.Equal(t, []string{}, empty.ClassificationCodes)
	assert.Zero(t, empty.BudgetAmount)
}
