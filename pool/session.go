package pool

// pool/session.go

import (
	"sync"

	"github.com/ApocalypseJiaWei/go_shibudb/client"
)

// ScopedSession 一次独占借用的会话句柄。持有期间会话不会被其他调用方取得;
// 任何退出路径都应调用 Release 归还,重复调用无效果。
type ScopedSession struct {
	pool    *connectionPoolImpl
	session Session
	once    sync.Once
}

// Session 借用的底层会话
func (s *ScopedSession) Session() Session {
	return s.session
}

// Client 以 *client.Client 形式返回底层会话,
// 仅对默认工厂创建的池有效,其余情况返回 nil
func (s *ScopedSession) Client() *client.Client {
	c, _ := s.session.(*client.Client)
	return c
}

// Release 归还会话:健康则回到空闲队列,不健康或池已关闭则被关闭
func (s *ScopedSession) Release() {
	s.once.Do(func() {
		s.pool.release(s.session)
	})
}
