package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Code int         `json:"code"` // 0:成功, -1:失败
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// Fail 业务失败，HTTP 状态仍为 200
func Fail(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{
		Code: -1,
		Msg:  msg,
	})
}

// Error 需要调用方感知的失败（如历史库不可用），带 HTTP 状态码
func Error(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{
		Code: -1,
		Msg:  msg,
	})
}
