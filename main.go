package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"baja-recommender/api/handler"
	"baja-recommender/api/router"
	"baja-recommender/job"
	"baja-recommender/logic/keyword"
	"baja-recommender/logic/match"
	"baja-recommender/service"
	"baja-recommender/storage/es"
	"baja-recommender/storage/postgres"
	"baja-recommender/vars"
)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if vars.APP_ENV == "development" {
		cfg = zap.NewDevelopmentConfig()
	}
	if err := cfg.Level.UnmarshalText([]byte(vars.LOG_LEVEL)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	logger := newLogger()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// 1. 初始化 DB
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		vars.PGHOST, vars.PGUSER, vars.PGPWD, vars.PGDB, vars.PGPORT)
	db, err := postgres.InitDB(dsn, vars.APP_ENV == "development")
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}
	bidRepo := postgres.NewBidRepo(db)

	// 2. 初始化 ES 索引（失败时只用 PG）
	esIndexer, err := es.NewESIndexer([]string{vars.ESADDR}, vars.ES_INDEX)
	if err != nil {
		logger.Warn("es init failed, index sync disabled", zap.Error(err))
		esIndexer = nil
	}

	// 3. 选择检索后端
	var store match.Store = bidRepo
	if vars.STORE_BACKEND == vars.ES {
		if esIndexer == nil {
			logger.Fatal("STORE_BACKEND=es but elasticsearch is unavailable")
		}
		store = es.NewStore(esIndexer.GetClient(), esIndexer.Index())
	}

	// 4. 启动定时同步 PG -> ES
	if esIndexer != nil && vars.SYNC_CRON != "" {
		c, err := job.StartSyncJob(job.NewSyncJob(bidRepo, esIndexer), vars.SYNC_CRON)
		if err != nil {
			logger.Fatal("sync job init failed", zap.Error(err))
		}
		defer c.Stop()
	}

	// 5. 初始化 Service
	rules, err := keyword.LoadRuleset(vars.RULES_PATH)
	if err != nil {
		logger.Fatal("load keyword rules failed", zap.Error(err))
	}
	opts := service.DefaultOptions()
	opts.Rules = rules
	recommendationSvc := service.NewRecommendationService(store, opts)
	logger.Info("service ready",
		zap.String("backend", vars.STORE_BACKEND),
		zap.String("rulesVersion", rules.Version))

	// 6. 启动 Web Server
	r := gin.Default()
	router.RegisterRoutes(r, handler.NewRecommendationHandler(recommendationSvc))

	logger.Info("server running", zap.String("addr", vars.HTTP_ADDR))
	if err := r.Run(vars.HTTP_ADDR); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
