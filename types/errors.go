package types

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable 历史库不可用（超时、连接失败、响应格式错误）
	ErrStoreUnavailable = errors.New("historical store unavailable")

	// ErrInvalidInput 请求没有任何可用信息
	ErrInvalidInput = errors.New("invalid input")
)

// StoreUnavailableError 记录出错时所在的检索层级
type StoreUnavailableError struct {
	Tier int
	Err  error
}

func (e *StoreUnavailableError) Error() string {
	if e.Tier > 0 {
		return fmt.Sprintf("%v (tier %d): %v", ErrStoreUnavailable, e.Tier, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrStoreUnavailable, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}
