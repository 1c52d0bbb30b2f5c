package job

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"baja-recommender/types"
)

const (
	batchSize = 500
	// 发布日期只有日精度，回看一天避免漏掉当天晚些入库的记录；_id 幂等，重复写入无影响
	lookback = 24 * time.Hour
	timeout  = 30 * time.Minute
)

// Source 历史库（postgres.BidRepo）
type Source interface {
	ListPublishedSince(ctx context.Context, since time.Time, batch int, fn func([]types.HistoricalBid) error) (int, error)
}

// Sink 检索索引（es.ESIndexer）
type Sink interface {
	Store(ctx context.Context, bids []types.HistoricalBid) (int, error)
}

// SyncJob 把 PG 中新发布的授标记录同步到 ES
type SyncJob struct {
	src  Source
	sink Sink
	now  func() time.Time

	mu      sync.Mutex
	lastRun time.Time // 零值表示全量同步
}

func NewSyncJob(src Source, sink Sink) *SyncJob {
	return &SyncJob{src: src, sink: sink, now: time.Now}
}

// Run 执行一次同步，返回写入条数；同一时间只允许一个同步在跑
func (j *SyncJob) Run(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	started := j.now()
	since := time.Time{}
	if !j.lastRun.IsZero() {
		since = j.lastRun.Add(-lookback)
	}

	indexed := 0
	read, err := j.src.ListPublishedSince(ctx, since, batchSize, func(bids []types.HistoricalBid) error {
		n, err := j.sink.Store(ctx, bids)
		indexed += n
		return err
	})
	if err != nil {
		return indexed, eris.Wrap(err, "sync: copy bids")
	}

	j.lastRun = started
	zap.L().Info("sync: finished",
		zap.Time("since", since),
		zap.Int("read", read),
		zap.Int("indexed", indexed),
		zap.Duration("elapsed", j.now().Sub(started)))
	return indexed, nil
}

// StartSyncJob 按 spec（6 段，含秒）定时执行；返回的 cron 由调用方 Stop
func StartSyncJob(job *SyncJob, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			zap.L().Error("sync: failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, eris.Wrapf(err, "sync: invalid cron spec %q", spec)
	}

	c.Start()
	zap.L().Info("sync: scheduled", zap.String("spec", spec))
	return c, nil
}
