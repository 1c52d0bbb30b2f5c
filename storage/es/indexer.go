package es

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"baja-recommender/types"
)

// bidDoc ES 中的文档结构
type bidDoc struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Buyer           string    `json:"buyer"`
	BudgetAmount    float64   `json:"budget_amount"`
	AwardedAmount   float64   `json:"awarded_amount"`
	Cpv             []string  `json:"cpv"`
	Region          string    `json:"region"`
	PublicationDate time.Time `json:"publication_date"`
	Year            int       `json:"year"`
	Awardee         string    `json:"awardee"`
	BiddersCount    int       `json:"bidders_count"`
}

func newBidDoc(b types.HistoricalBid) bidDoc {
	return bidDoc{
		ID:              b.ID,
		Title:           b.Title,
		Buyer:           b.Buyer,
		BudgetAmount:    b.BudgetAmount,
		AwardedAmount:   b.AwardedAmount,
		Cpv:             b.ClassificationCodes,
		Region:          b.Region,
		PublicationDate: b.PublicationDate,
		Year:            b.PublicationDate.Year(),
		Awardee:         b.Awardee,
		BiddersCount:    b.BiddersCount,
	}
}

func (d bidDoc) toBid(id string) types.HistoricalBid {
	if d.ID != "" {
		id = d.ID
	}
	codes := d.Cpv
	if codes == nil {
		codes = []string{}
	}
	return types.HistoricalBid{
		ID:                  id,
		Title:               d.Title,
		Buyer:               d.Buyer,
		AwardedAmount:       d.AwardedAmount,
		BudgetAmount:        d.BudgetAmount,
		ClassificationCodes: codes,
		Region:              d.Region,
		PublicationDate:     d.PublicationDate,
		Awardee:             d.Awardee,
		BiddersCount:        d.BiddersCount,
	}
}

// indexMapping folded 分析器：小写 + 去重音，西语标题不需要 IK 之类的分词；地区查询时再去掉虚词
const indexMapping = `
{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "folded": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        },
        "folded_stop": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "spanish_stop"]
        }
      },
      "filter": {
        "spanish_stop": { "type": "stop", "stopwords": "_spanish_" }
      },
      "normalizer": {
        "folded_keyword": {
          "type": "custom",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":               { "type": "keyword" },
      "title":            { "type": "text", "analyzer": "folded" },
      "buyer": {
        "type": "text",
        "analyzer": "folded",
        "fields": {
          "raw": { "type": "keyword", "normalizer": "folded_keyword" }
        }
      },
      "budget_amount":    { "type": "double" },
      "awarded_amount":   { "type": "double" },
      "cpv":              { "type": "keyword" },
      "region":           { "type": "text", "analyzer": "folded", "search_analyzer": "folded_stop" },
      "publication_date": { "type": "date" },
      "year":             { "type": "integer" },
      "awardee":          { "type": "keyword" },
      "bidders_count":    { "type": "integer" }
    }
  }
}`

type ESIndexer struct {
	client  *elasticsearch.Client
	index   string
	newBulk func(esutil.BulkIndexerConfig) (esutil.BulkIndexer, error)
}

// GetClient 返回 ES 客户端（用于检索）
func (e *ESIndexer) GetClient() *elasticsearch.Client {
	return e.client
}

func (e *ESIndexer) Index() string { return e.index }

// NewESIndexer 初始化 ES 客户端并确保索引存在
func NewESIndexer(addresses []string, indexName string) (*ESIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, eris.Wrap(err, "es: create client")
	}

	indexer := &ESIndexer{client: client, index: indexName, newBulk: esutil.NewBulkIndexer}
	if err := indexer.initMapping(context.Background()); err != nil {
		return nil, err
	}
	return indexer, nil
}

func (e *ESIndexer) initMapping(ctx context.Context) error {
	// 1. 检查索引是否存在
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "es: check index")
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil // 已存在，跳过
	}

	// 2. 创建索引
	zap.L().Info("es: creating index", zap.String("index", e.index))
	res, err = e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return eris.Wrap(err, "es: create index")
	}
	defer res.Body.Close()
	if res.IsError() {
		return eris.Errorf("es: create index response error: %s", res.String())
	}
	return nil
}

// Store 批量写入，用记录 ID 作为 _id 保证重复同步是幂等的
func (e *ESIndexer) Store(ctx context.Context, bids []types.HistoricalBid) (int, error) {
	if len(bids) == 0 {
		return 0, nil
	}
	bi, err := e.newBulk(esutil.BulkIndexerConfig{
		Index:         e.index,
		Client:        e.client,
		FlushInterval: time.Second,
	})
	if err != nil {
		return 0, eris.Wrap(err, "es: create bulk indexer")
	}
	// 出错提前返回时也要关闭，回收 worker
	closed := false
	defer func() {
		if !closed {
			if err := bi.Close(context.Background()); err != nil {
				zap.L().Warn("es: close bulk indexer", zap.Error(err))
			}
		}
	}()

	var failed int64
	for _, b := range bids {
		if b.ID == "" {
			continue
		}
		data, err := json.Marshal(newBidDoc(b))
		if err != nil {
			return 0, eris.Wrapf(err, "es: encode bid %s", b.ID)
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: b.ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, resp esutil.BulkIndexerResponseItem, err error) {
				atomic.AddInt64(&failed, 1)
				zap.L().Warn("es: index bid failed",
					zap.String("id", item.DocumentID),
					zap.String("reason", resp.Error.Reason),
					zap.Error(err))
			},
		})
		if err != nil {
			return 0, eris.Wrap(err, "es: add bulk item")
		}
	}

	closed = true
	if err := bi.Close(ctx); err != nil {
		return 0, eris.Wrap(err, "es: flush bulk indexer")
	}
	stats := bi.Stats()
	if n := atomic.LoadInt64(&failed); n > 0 {
		return int(stats.NumIndexed), eris.Errorf("es: %d bids failed to index", n)
	}
	return int(stats.NumIndexed), nil
}
