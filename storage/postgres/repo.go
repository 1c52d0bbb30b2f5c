package postgres

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"baja-recommender/logic/keyword"
	"baja-recommender/types"
)

// 标题去重音比对，和 keyword.Normalize 的结果保持一致
const foldedTitle = "translate(lower(titulo), 'áéíóúàèìòùäëïöüâêîôûñç', 'aeiouaeiouaeiouaeiounc')"

// 地区去重音并把非字母数字折叠成空格，对应 keyword.Normalize
const foldedRegion = "trim(regexp_replace(translate(lower(provincia), 'áéíóúàèìòùäëïöüâêîôûñç', 'aeiouaeiouaeiouaeiounc'), '[^a-z0-9]+', ' ', 'g'))"

// 只选需要的列，cpv 可能是数组或 text，统一转成 text
var selectColumns = []string{
	"id", "titulo", "entidad_compradora", "importe_total", "importe_adjudicacion",
	"adjudicatario", "numero_licitadores", "fecha_publicacion", "cpv::text AS cpv",
	"provincia", "tipo_contrato",
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// BidRepo 历史授标记录查询，实现 match.Store
type BidRepo struct {
	db *gorm.DB
}

// NewBidRepo 构造函数
func NewBidRepo(db *gorm.DB) *BidRepo {
	return &BidRepo{db: db}
}

// Query 按条件查询，按发布日期倒序
func (r *BidRepo) Query(ctx context.Context, q types.BidQuery) ([]types.HistoricalBid, error) {
	var rows []Adjudicacion
	// WithContext 允许请求取消时中断查询
	tx := buildQuery(r.db.WithContext(ctx).Model(&Adjudicacion{}), q)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, eris.Wrap(err, "postgres: query bids")
	}

	out := make([]types.HistoricalBid, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToBid())
	}
	return out, nil
}

// buildQuery 动态拼接条件；未设置的字段不参与过滤
func buildQuery(tx *gorm.DB, q types.BidQuery) *gorm.DB {
	// 1. 基础数据质量
	tx = validRows(tx)

	// 2. CPV 前缀：匹配字段里任意一个编码的开头
	if q.ClassificationPrefix != "" && digitsOnly.MatchString(q.ClassificationPrefix) {
		tx = tx.Where("cpv::text ~ ?", "(^|[^0-9])"+q.ClassificationPrefix)
	}

	// 3. 预算区间
	if q.BudgetMin != nil {
		tx = tx.Where("importe_total >= ?", *q.BudgetMin)
	}
	if q.BudgetMax != nil {
		tx = tx.Where("importe_total <= ?", *q.BudgetMax)
	}

	// 4. 年份
	if len(q.Years) > 0 {
		tx = tx.Where("EXTRACT(YEAR FROM fecha_publicacion) IN ?", q.Years)
	}

	// 5. 地区：归一化后双向包含，和 match.RegionMatch 一致
	if region := keyword.Normalize(q.Region); region != "" {
		tx = tx.Where("("+foldedRegion+" LIKE ? OR ("+foldedRegion+" <> '' AND ? LIKE '%' || "+foldedRegion+" || '%'))",
			"%"+region+"%", region)
	}

	// 6. 采购方（忽略大小写的精确匹配）
	if buyer := strings.TrimSpace(q.Buyer); buyer != "" {
		tx = tx.Where("LOWER(entidad_compradora) = LOWER(?)", buyer)
	}

	// 7. 关键词召回：各关键词之间 OR，短语内各词 AND
	if len(q.Keywords) > 0 {
		var orConditions []string
		var orValues []interface{}
		for _, k := range q.Keywords {
			words := keyword.Tokens(k)
			if len(words) == 0 {
				continue
			}
			ands := make([]string, 0, len(words))
			for _, w := range words {
				ands = append(ands, foldedTitle+" LIKE ?")
				orValues = append(orValues, "%"+w+"%")
			}
			orConditions = append(orConditions, "("+strings.Join(ands, " AND ")+")")
		}
		if len(orConditions) > 0 {
			tx = tx.Where("("+strings.Join(orConditions, " OR ")+")", orValues...)
		}
	}

	tx = tx.Order("fecha_publicacion DESC").Order("id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

// validRows 金额都存在且不相等，有发布日期
func validRows(tx *gorm.DB) *gorm.DB {
	return tx.Select(selectColumns).
		Where("importe_total > 0 AND importe_adjudicacion > 0").
		Where("importe_total <> importe_adjudicacion").
		Where("fecha_publicacion IS NOT NULL")
}

// ListPublishedSince 同步任务使用，按批回调，返回处理的总行数
func (r *BidRepo) ListPublishedSince(ctx context.Context, since time.Time, batch int, fn func([]types.HistoricalBid) error) (int, error) {
	if batch <= 0 {
		batch = 500
	}
	var rows []Adjudicacion
	total := 0
	// FindInBatches 按主键分页，这里不能再加其他排序
	res := validRows(r.db.WithContext(ctx).Model(&Adjudicacion{})).
		Where("fecha_publicacion >= ?", since).
		FindInBatches(&rows, batch, func(tx *gorm.DB, _ int) error {
			bids := make([]types.HistoricalBid, 0, len(rows))
			for i := range rows {
				bids = append(bids, rows[i].ToBid())
			}
			total += len(bids)
			return fn(bids)
		})
	if res.Error != nil {
		return total, eris.Wrap(res.Error, "postgres: list bids")
	}
	return total, nil
}
