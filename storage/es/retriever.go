package es

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"baja-recommender/types"
)

// 关键词短语允许中间夹的词数，和 keyword 规则里的虚词间隔一致
const phraseSlop = 3

// 未指定 Limit 时的默认返回条数
const defaultSize = 300

// Store 基于 ES 的历史库查询，实现 match.Store
type Store struct {
	client *elasticsearch.Client
	index  string
}

func NewStore(client *elasticsearch.Client, index string) *Store {
	return &Store{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string `json:"_id"`
			Source bidDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query 执行检索
func (s *Store) Query(ctx context.Context, q types.BidQuery) ([]types.HistoricalBid, error) {
	// 1. 构建查询语句
	body, err := json.Marshal(buildSearchBody(q))
	if err != nil {
		return nil, eris.Wrap(err, "es: encode query")
	}
	zap.L().Debug("es: query", zap.ByteString("body", body))

	// 2. 执行搜索
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, eris.Wrap(err, "es: search")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, eris.Errorf("es: search response error: %s", res.String())
	}

	// 3. 解析结果
	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, eris.Wrap(err, "es: decode response")
	}

	out := make([]types.HistoricalBid, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.toBid(h.ID))
	}
	zap.L().Debug("es: retrieved", zap.Int("count", len(out)))
	return out, nil
}

// buildSearchBody 过滤条件全部放在 bool.filter，关键词作为 should 至少命中一个
func buildSearchBody(q types.BidQuery) map[string]interface{} {
	filters := []map[string]interface{}{
		{"range": map[string]interface{}{"budget_amount": map[string]interface{}{"gt": 0}}},
		{"range": map[string]interface{}{"awarded_amount": map[string]interface{}{"gt": 0}}},
	}

	if q.ClassificationPrefix != "" {
		filters = append(filters, map[string]interface{}{
			"prefix": map[string]interface{}{"cpv": q.ClassificationPrefix},
		})
	}

	if q.BudgetMin != nil || q.BudgetMax != nil {
		budget := make(map[string]interface{})
		if q.BudgetMin != nil {
			budget["gte"] = *q.BudgetMin
		}
		if q.BudgetMax != nil {
			budget["lte"] = *q.BudgetMax
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"budget_amount": budget},
		})
	}

	if len(q.Years) > 0 {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"year": q.Years},
		})
	}

	// 地区只做召回（任一词命中），双向包含由 match.RegionMatch 复核
	if region := strings.TrimSpace(q.Region); region != "" {
		filters = append(filters, map[string]interface{}{
			"match": map[string]interface{}{
				"region": map[string]interface{}{"query": region, "operator": "or"},
			},
		})
	}

	if buyer := strings.TrimSpace(q.Buyer); buyer != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"buyer.raw": buyer},
		})
	}

	boolQuery := map[string]interface{}{"filter": filters}

	if len(q.Keywords) > 0 {
		should := make([]map[string]interface{}, 0, len(q.Keywords))
		for _, k := range q.Keywords {
			should = append(should, map[string]interface{}{
				"match_phrase": map[string]interface{}{
					"title": map[string]interface{}{"query": k, "slop": phraseSlop},
				},
			})
		}
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}

	size := q.Limit
	if size <= 0 {
		size = defaultSize
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []map[string]interface{}{
			{"publication_date": map[string]interface{}{"order": "desc"}},
			{"id": map[string]interface{}{"order": "asc"}},
		},
		"size": size,
	}
}
