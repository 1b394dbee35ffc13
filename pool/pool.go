package pool

// pool/pool.go

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/ApocalypseJiaWei/go_shibudb/client"
)

var (
	ErrPoolClosed    = errors.New("connection pool is closed")
	ErrPoolExhausted = errors.New("connection pool exhausted")
)

// 不健康会话在单次 Acquire 内的替换次数上限
const maxReplaceAttempts = 2

type connectionPoolImpl struct {
	config  *PoolConfig
	factory Factory
	log     logrus.FieldLogger

	// idle 既是空闲队列也是跨协程交接与阻塞原语。
	// 入队统一在 mu 内进行且 cap == MaxSize >= activeCount,入队必不阻塞;
	// 出队无需加锁。
	idle    chan Session
	workers *ants.Pool

	mu          sync.Mutex
	activeCount int
	shutdown    bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewConnectionPool 以默认会话工厂(连接并认证 client.Client)创建连接池。
// 同步创建 MinSize 条会话,单条创建失败仅记录日志,由补充协程事后补足。
func NewConnectionPool(config *PoolConfig) (ConnectionPool, error) {
	cfg := config.withDefaults()
	factory := func() (Session, error) {
		return newAuthenticatedClient(cfg)
	}
	return newPool(cfg, factory)
}

// NewConnectionPoolWithFactory 使用自定义会话工厂创建连接池
func NewConnectionPoolWithFactory(config *PoolConfig, factory Factory) (ConnectionPool, error) {
	return newPool(config.withDefaults(), factory)
}

func newPool(cfg *PoolConfig, factory Factory) (ConnectionPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	workers, err := ants.NewPool(cfg.MaxSize)
	if err != nil {
		return nil, err
	}

	p := &connectionPoolImpl{
		config:  cfg,
		factory: factory,
		log:     cfg.Logger,
		idle:    make(chan Session, cfg.MaxSize),
		workers: workers,
		done:    make(chan struct{}),
	}

	p.initIdleSessions()

	go p.replenishLoop()
	return p, nil
}

func newAuthenticatedClient(cfg *PoolConfig) (Session, error) {
	c, err := client.New(cfg.Host, cfg.Port, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if cfg.Username != "" && cfg.Password != "" {
		if _, err := c.Authenticate(cfg.Username, cfg.Password); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (p *connectionPoolImpl) initIdleSessions() {
	for i := 0; i < p.config.MinSize; i++ {
		sess, err := p.factory()
		if err != nil {
			p.log.WithError(err).Warn("create initial session failed")
			continue
		}
		p.mu.Lock()
		p.activeCount++
		p.idle <- sess
		p.mu.Unlock()
	}
}

// Acquire 获取一条独占会话:先取空闲,再按容量新建,最后阻塞等待。
// 任一候选会话都要先通过探测,不健康者被关闭并在预算内替换。
func (p *connectionPoolImpl) Acquire(ctx context.Context) (*ScopedSession, error) {
	if p.isShutdown() {
		return nil, ErrPoolClosed
	}

	select {
	case sess := <-p.idle:
		return p.checkout(sess)
	default:
	}

	sess, err := p.grow()
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return p.checkout(sess)
	}

	// 已达容量上限,等待归还或超时
	timer := time.NewTimer(p.config.AcquireTimeout)
	defer timer.Stop()

	select {
	case sess := <-p.idle:
		return p.checkout(sess)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrPoolExhausted, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("%w: no session within %s", ErrPoolExhausted, p.config.AcquireTimeout)
	case <-p.done:
		return nil, ErrPoolClosed
	}
}

// grow 在容量允许时新建会话。名额在锁内预留,拨号在锁外进行;
// 已达上限时返回 (nil, nil)。
func (p *connectionPoolImpl) grow() (Session, error) {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.activeCount >= p.config.MaxSize {
		p.mu.Unlock()
		return nil, nil
	}
	p.activeCount++
	p.mu.Unlock()

	sess, err := p.factory()
	if err != nil {
		p.decActive()
		return nil, err
	}
	return sess, nil
}

// checkout 健康检查:探测失败的会话被关闭,在预算内创建替换会话
func (p *connectionPoolImpl) checkout(sess Session) (*ScopedSession, error) {
	for attempt := 0; ; attempt++ {
		if err := sess.Probe(); err == nil {
			return &ScopedSession{pool: p, session: sess}, nil
		}

		p.log.Warn("session failed health check, discarding")
		_ = sess.Close()
		p.decActive()

		if attempt >= maxReplaceAttempts {
			return nil, fmt.Errorf("%w: unhealthy session could not be replaced", ErrPoolExhausted)
		}

		replacement, err := p.grow()
		if err != nil {
			return nil, fmt.Errorf("%w: replace session: %v", ErrPoolExhausted, err)
		}
		if replacement == nil {
			return nil, fmt.Errorf("%w: no capacity to replace unhealthy session", ErrPoolExhausted)
		}
		sess = replacement
	}
}

// release 归还会话:探测在锁外进行,健康则重新入队,
// 不健康或池已关闭则关闭并递减计数
func (p *connectionPoolImpl) release(sess Session) {
	healthy := sess.Probe() == nil

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown || !healthy {
		_ = sess.Close()
		if p.activeCount > 0 {
			p.activeCount--
		}
		if !healthy {
			p.log.Debug("released session unhealthy, dropped from pool")
		}
		return
	}
	p.idle <- sess
}

// replenishLoop 周期性将池恢复到 MinSize,创建失败下个周期重试
func (p *connectionPoolImpl) replenishLoop() {
	ticker := time.NewTicker(p.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.replenish()
		case <-p.done:
			return
		}
	}
}

func (p *connectionPoolImpl) replenish() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	needed := p.config.MinSize - p.activeCount
	if needed <= 0 {
		p.mu.Unlock()
		return
	}
	p.activeCount += needed // 预留名额,拨号交给工作协程
	p.mu.Unlock()

	for i := 0; i < needed; i++ {
		if err := p.workers.Submit(p.replenishOne); err != nil {
			p.decActive()
			p.log.WithError(err).Warn("submit replenish task failed")
		}
	}
}

func (p *connectionPoolImpl) replenishOne() {
	sess, err := p.factory()
	if err != nil {
		p.decActive()
		p.log.WithError(err).Warn("replenish session failed, will retry next interval")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		_ = sess.Close()
		if p.activeCount > 0 {
			p.activeCount--
		}
		return
	}
	p.idle <- sess
}

// Stats 在锁内取一次统计快照,无副作用
func (p *connectionPoolImpl) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PoolStats{
		IdleConnections:   len(p.idle),
		ActiveConnections: p.activeCount,
		MinSize:           p.config.MinSize,
		MaxSize:           p.config.MaxSize,
		Shutdown:          p.shutdown,
	}
}

// Close 关闭连接池:排空并关闭空闲会话,已借出的会话在归还时关闭。
// 关闭后 Acquire 立即失败,池不可重新打开。
func (p *connectionPoolImpl) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.shutdown = true
		close(p.done)

	drain:
		for {
			select {
			case sess := <-p.idle:
				_ = sess.Close()
			default:
				break drain
			}
		}
		p.activeCount = 0
		p.mu.Unlock()

		p.workers.Release()
		p.log.Info("connection pool closed")
	})
}

func (p *connectionPoolImpl) isShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdown
}

func (p *connectionPoolImpl) decActive() {
	p.mu.Lock()
	if p.activeCount > 0 {
		p.activeCount--
	}
	p.mu.Unlock()
}
