package discount

import (
	"math"
	"sort"

	"baja-recommender/types"
)

const epsilon = 1e-9

// Config 聚类与推荐参数
type Config struct {
	Tolerance      float64 // 相邻两个折扣的最大差值（百分点）
	MinClusterSize int
	Margin         float64 // 在参考值上额外加的百分点，固定业务规则
	Max            float64 // 上限
	Default        float64 // 没有任何折扣数据时的保守值
}

func DefaultConfig() Config {
	return Config{
		Tolerance:      4,
		MinClusterSize: 2,
		Margin:         2,
		Max:            70,
		Default:        15,
	}
}

// Recommendation 推荐结果
type Recommendation struct {
	Discount float64
	Basis    types.Basis
	Cluster  []float64 // basis = cluster 时为簇内成员（升序）
}

// Clusters 升序排序后按相邻差值切分为若干段，返回所有段（含单元素段）
func Clusters(values []float64, tolerance float64) [][]float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out [][]float64
	run := []float64{sorted[0]}
	for _, v := range sorted[1:] {
		if v-run[len(run)-1] <= tolerance+epsilon {
			run = append(run, v)
			continue
		}
		out = append(out, run)
		run = []float64{v}
	}
	return append(out, run)
}

// Largest 成员最多的簇，数量相同时取最大值更高的；没有满足 minSize 的簇返回 nil
func Largest(clusters [][]float64, minSize int) []float64 {
	var best []float64
	for _, c := range clusters {
		if len(c) < minSize {
			continue
		}
		if best == nil || len(c) > len(best) || (len(c) == len(best) && c[len(c)-1] > best[len(best)-1]) {
			best = c
		}
	}
	return best
}

// Recommend 依次尝试：历史中标 -> 最大簇 -> 平均值 -> 默认值，任何分支都不会失败
func Recommend(values []float64, prior *float64, cfg Config) Recommendation {
	// 1. 同一采购方的历史中标优先
	if prior != nil {
		return Recommendation{
			Discount: clamp(*prior+cfg.Margin, cfg.Max),
			Basis:    types.BasisPriorAward,
		}
	}

	if len(values) == 0 {
		return Recommendation{Discount: clamp(cfg.Default, cfg.Max), Basis: types.BasisAverage}
	}

	// 2. 最大簇
	if best := Largest(Clusters(values, cfg.Tolerance), cfg.MinClusterSize); best != nil {
		return Recommendation{
			Discount: clamp(best[len(best)-1]+cfg.Margin, cfg.Max),
			Basis:    types.BasisCluster,
			Cluster:  best,
		}
	}

	// 3. 平均值
	return Recommendation{
		Discount: clamp(Mean(values)+cfg.Margin, cfg.Max),
		Basis:    types.BasisAverage,
	}
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		v = max
	}
	return Round2(v)
}
