package repository

import "errors"

// 仓储层统一的哨兵错误，service层据此翻译成业务错误
var (
	ErrNotFound    = errors.New("repository: record not found")
	ErrDuplicate   = errors.New("repository: duplicate entry")
	ErrLockTimeout = errors.New("repository: lock wait timeout")
)
