package client

// client/errors.go

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailure 传输层连接失败
	ErrConnectionFailure = errors.New("connection failed")

	// ErrAuthenticationFailure 服务端拒绝凭据
	ErrAuthenticationFailure = errors.New("authentication failed")

	// ErrQueryFailure 请求/应答交换在传输或协议层失败
	ErrQueryFailure = errors.New("query failed")

	// ErrNoSpaceSelected 未选择空间即执行数据操作
	ErrNoSpaceSelected = fmt.Errorf("%w: no space selected, call UseSpace first", ErrQueryFailure)
)
