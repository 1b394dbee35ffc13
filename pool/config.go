package pool

// pool/config.go

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost                = "localhost"
	defaultPort                = 4444
	defaultTimeout             = 30 * time.Second
	defaultMinSize             = 2
	defaultMaxSize             = 10
	defaultAcquireTimeout      = 30 * time.Second
	defaultHealthCheckInterval = 60 * time.Second
)

// PoolConfig 连接池配置,构造后不可变
type PoolConfig struct {
	Host     string
	Port     int
	Timeout  time.Duration // 单次网络操作超时
	Username string        // 可选凭据
	Password string

	MinSize             int // 池保有的最小会话数
	MaxSize             int // 池允许的最大会话数
	AcquireTimeout      time.Duration
	HealthCheckInterval time.Duration

	// Logger 注入式日志,缺省为独立实例,不引用任何全局单例
	Logger logrus.FieldLogger
}

// withDefaults 返回补全默认值后的副本
func (c *PoolConfig) withDefaults() *PoolConfig {
	cfg := *c
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultMaxSize
		if cfg.MinSize == 0 {
			cfg.MinSize = defaultMinSize
		}
	}
	if cfg.AcquireTimeout == 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = defaultHealthCheckInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &cfg
}

// Validate 校验容量配置
func (c *PoolConfig) Validate() error {
	if c.MinSize < 0 {
		return fmt.Errorf("min_size must be >= 0, got %d", c.MinSize)
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("max_size must be > 0, got %d", c.MaxSize)
	}
	if c.MinSize > c.MaxSize {
		return fmt.Errorf("min_size %d exceeds max_size %d", c.MinSize, c.MaxSize)
	}
	return nil
}

// fileConfig YAML 配置文件结构,时间项以秒为单位
type fileConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	Timeout             int    `yaml:"timeout"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	MinSize             int    `yaml:"min_size"`
	MaxSize             int    `yaml:"max_size"`
	AcquireTimeout      int    `yaml:"acquire_timeout"`
	HealthCheckInterval int    `yaml:"health_check_interval"`
}

// LoadConfig 从 YAML 文件读取连接池配置
func LoadConfig(path string) (*PoolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &PoolConfig{
		Host:                fc.Host,
		Port:                fc.Port,
		Timeout:             time.Duration(fc.Timeout) * time.Second,
		Username:            fc.Username,
		Password:            fc.Password,
		MinSize:             fc.MinSize,
		MaxSize:             fc.MaxSize,
		AcquireTimeout:      time.Duration(fc.AcquireTimeout) * time.Second,
		HealthCheckInterval: time.Duration(fc.HealthCheckInterval) * time.Second,
	}, nil
}

// PoolStats 连接池统计信息快照
type PoolStats struct {
	IdleConnections   int
	ActiveConnections int
	MinSize           int
	MaxSize           int
	Shutdown          bool
}

// Session 池所管理会话的最小能力集,池不关心会话上承载的命令语义
type Session interface {
	Probe() error
	Close() error
}

// Factory 创建一条新会话(连接并完成认证)
type Factory func() (Session, error)

// ConnectionPool 连接池接口定义
type ConnectionPool interface {
	Acquire(ctx context.Context) (*ScopedSession, error)
	Stats() PoolStats
	Close()
}
