package postgres

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"baja-recommender/logic/cpv"
	"baja-recommender/types"
	"baja-recommender/vars"
)

// Adjudicacion 对应 Metabase 同步过来的 adjudicaciones_metabase 表，只读
type Adjudicacion struct {
	ID                  int64      `gorm:"column:id;primaryKey"`
	Titulo              string     `gorm:"column:titulo"`
	EntidadCompradora   string     `gorm:"column:entidad_compradora"`
	ImporteTotal        *float64   `gorm:"column:importe_total"`        // 预算
	ImporteAdjudicacion *float64   `gorm:"column:importe_adjudicacion"` // 中标价
	Adjudicatario       string     `gorm:"column:adjudicatario"`        // 可能是 JSON
	NumeroLicitadores   *int       `gorm:"column:numero_licitadores"`
	FechaPublicacion    *time.Time `gorm:"column:fecha_publicacion"`
	Cpv                 string     `gorm:"column:cpv"` // 查询时统一转成 text
	Provincia           string     `gorm:"column:provincia"`
	TipoContrato        string     `gorm:"column:tipo_contrato"`
}

// TableName 强制指定表名
func (Adjudicacion) TableName() string {
	return vars.BIDTABLE
}

// ToBid 转成领域对象
func (a *Adjudicacion) ToBid() types.HistoricalBid {
	b := types.HistoricalBid{
		ID:                  strconv.FormatInt(a.ID, 10),
		Title:               strings.TrimSpace(a.Titulo),
		Buyer:               strings.TrimSpace(a.EntidadCompradora),
		ClassificationCodes: cpv.Extract(a.Cpv),
		Region:              strings.TrimSpace(a.Provincia),
		Awardee:             CleanAwardee(a.Adjudicatario),
	}
	if b.ClassificationCodes == nil {
		b.ClassificationCodes = []string{}
	}
	if a.ImporteTotal != nil {
		b.BudgetAmount = *a.ImporteTotal
	}
	if a.ImporteAdjudicacion != nil {
		b.AwardedAmount = *a.ImporteAdjudicacion
	}
	if a.NumeroLicitadores != nil {
		b.BiddersCount = *a.NumeroLicitadores
	}
	if a.FechaPublicacion != nil {
		b.PublicationDate = *a.FechaPublicacion
	}
	return b
}

type awardeeName struct {
	Name string `json:"name"`
}

type awardeeWrapper struct {
	Adjudicatario *awardeeName `json:"adjudicatario"`
	Name          string       `json:"name"`
}

// CleanAwardee 中标人字段有几种存法：纯文本、{"adjudicatario":{"name":..}}、它的数组、{"name":..}
func CleanAwardee(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	switch s[0] {
	case '{':
		var w awardeeWrapper
		if err := json.Unmarshal([]byte(s), &w); err == nil {
			return w.name()
		}
	case '[':
		var list []awardeeWrapper
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			names := make([]string, 0, len(list))
			for _, w := range list {
				if n := w.name(); n != "" {
					names = append(names, n)
				}
			}
			return strings.Join(names, "; ")
		}
	}
	return s
}

func (w awardeeWrapper) name() string {
	if w.Adjudicatario != nil && w.Adjudicatario.Name != "" {
		return strings.TrimSpace(w.Adjudicatario.Name)
	}
	return strings.TrimSpace(w.Name)
}
