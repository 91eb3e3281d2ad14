// Package pool 基于 ants 的协程池，承载文档入库等后台任务。
package pool

import "errors"

var (
	// ErrPoolClosed 池已关闭
	ErrPoolClosed = errors.New("池已关闭")
	// ErrPoolOverload 池已满
	ErrPoolOverload = errors.New("池已满")
	// ErrInvalidPoolConfig 无效的池配置
	ErrInvalidPoolConfig = errors.New("无效的池配置")
)
