package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"baja-recommender/api/response"
	"baja-recommender/service"
	"baja-recommender/types"
)

type RecommendationHandler struct {
	svc *service.RecommendationService
}

func NewRecommendationHandler(svc *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// Analyze 单个标段的折扣推荐
func (h *RecommendationHandler) Analyze(c *gin.Context) {
	var req types.TargetBid
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body: "+err.Error())
		return
	}
	if err := checkTarget(req); err != nil {
		response.Fail(c, err.Error())
		return
	}

	result, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// AnalyzeLots 多标段，每个标段独立计算
func (h *RecommendationHandler) AnalyzeLots(c *gin.Context) {
	var req types.AnalyzeLotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Lots) == 0 {
		response.Fail(c, "lots must not be empty")
		return
	}
	for _, lot := range req.Lots {
		if err := checkTarget(lot); err != nil {
			response.Fail(c, err.Error())
			return
		}
	}

	results, err := h.svc.AnalyzeLots(c.Request.Context(), req.Lots)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, results)
}

// Keywords 只返回标题关键词，便于调试词典
func (h *RecommendationHandler) Keywords(c *gin.Context) {
	var req types.KeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body: "+err.Error())
		return
	}
	response.Success(c, h.svc.Keywords(req.Title))
}

func (h *RecommendationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *RecommendationHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, types.ErrStoreUnavailable) {
		zap.L().Error("handler: store unavailable", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	response.Fail(c, err.Error())
}

// checkTarget 标题、编码、预算全部缺失时无法检索；预算 <= 0 只降级，由 service 给出 warning
func checkTarget(t types.TargetBid) error {
	if strings.TrimSpace(t.Title) == "" && len(t.ClassificationCodes) == 0 && t.Budget <= 0 {
		return fmt.Errorf("%w: title, classificationCodes and budget are all empty", types.ErrInvalidInput)
	}
	return nil
}
