package vars

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv 获取环境变量，如果不存在则返回默认值
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvInt 整型环境变量，解析失败返回默认值
func GetEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

// GetEnvFloat 浮点型环境变量，解析失败返回默认值
func GetEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(GetEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

// GetEnvBool 布尔型环境变量
func GetEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(GetEnv(key, ""))); err == nil {
		return v
	}
	return fallback
}

const (
	// 历史库表名 (Metabase 同步表)
	BIDTABLE = "adjudicaciones_metabase"

	// 存储后端
	PG = "postgres"
	ES = "es"
)

// 环境变量配置（支持 Docker 部署）
var (
	// PG
	PGUSER = GetEnv("PGUSER", "postgres")
	PGPWD  = GetEnv("PGPWD", "postgres")
	PGDB   = GetEnv("PGDB", "licitaciones")
	PGHOST = GetEnv("PGHOST", "localhost")
	PGPORT = GetEnv("PGPORT", "5432")

	// ES
	ESADDR   = GetEnv("ESADDR", "http://localhost:9200")
	ES_INDEX = GetEnv("ES_INDEX", "adjudicaciones_v1")

	// 服务
	HTTP_ADDR     = GetEnv("HTTP_ADDR", ":8081")
	STORE_BACKEND = GetEnv("STORE_BACKEND", PG)
	APP_ENV       = GetEnv("APP_ENV", "production")
	LOG_LEVEL     = GetEnv("LOG_LEVEL", "info")

	// 同步任务，空字符串表示不启动
	SYNC_CRON = GetEnv("SYNC_CRON", "0 0 3 * * *")

	// 词典覆盖文件，空则使用内置 rules.yaml
	RULES_PATH = GetEnv("RULES_PATH", "")

	// 引擎参数
	MIN_CANDIDATES    = GetEnvInt("MIN_CANDIDATES", 3)
	RESULT_LIMIT      = GetEnvInt("RESULT_LIMIT", 10)
	RECENT_YEARS      = GetEnvInt("RECENT_YEARS", 4)
	CLUSTER_TOLERANCE = GetEnvFloat("CLUSTER_TOLERANCE", 4)
	KEYWORD_WEIGHT    = GetEnvFloat("KEYWORD_WEIGHT", 10)
	BUDGET_TOLERANCE  = GetEnvFloat("BUDGET_TOLERANCE", 0.5) // 第 2、3 层预算浮动
	PRIOR_AWARD       = GetEnvBool("PRIOR_AWARD", true)
)
