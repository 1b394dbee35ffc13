package client

// client/commands.go
//
// 各数据库命令均为薄封装:构造请求、执行、返回应答。

import (
	"strconv"

	"github.com/ApocalypseJiaWei/go_shibudb/command"
	"github.com/ApocalypseJiaWei/go_shibudb/model"
)

// SpaceOption 建空间的可选参数
type SpaceOption func(*spaceOptions)

type spaceOptions struct {
	dimension int
	indexType string
	metric    string
}

// WithDimension 向量空间维度
func WithDimension(d int) SpaceOption {
	return func(o *spaceOptions) { o.dimension = d }
}

// WithIndexType 向量索引类型,默认 Flat
func WithIndexType(t string) SpaceOption {
	return func(o *spaceOptions) { o.indexType = t }
}

// WithMetric 距离度量,默认 L2
func WithMetric(m string) SpaceOption {
	return func(o *spaceOptions) { o.metric = m }
}

// UseSpace 切换当前空间
func (c *Client) UseSpace(space string) (*model.Response, error) {
	q := command.New(command.UseSpace).
		WithSpace(space).
		WithUser(c.username())

	resp, err := c.Execute(q)
	if err == nil && resp.OK() {
		c.mu.Lock()
		c.currentSpace = space
		c.mu.Unlock()
	}
	return resp, err
}

// CreateSpace 创建空间,engineType 为 key-value 或 vector
func (c *Client) CreateSpace(space, engineType string, opts ...SpaceOption) (*model.Response, error) {
	o := spaceOptions{indexType: "Flat", metric: "L2"}
	for _, fn := range opts {
		fn(&o)
	}

	q := command.New(command.CreateSpace).
		WithSpace(space).
		WithUser(c.username()).
		WithField("engine_type", engineType).
		WithField("index_type", o.indexType).
		WithField("metric", o.metric)
	if o.dimension > 0 {
		q.WithField("dimension", o.dimension)
	}
	return c.Execute(q)
}

// DeleteSpace 删除空间,空间名经 data 字段传递
func (c *Client) DeleteSpace(space string) (*model.Response, error) {
	q := command.New(command.DeleteSpace).
		WithField("data", space).
		WithUser(c.username())
	return c.Execute(q)
}

// ListSpaces 列出全部空间
func (c *Client) ListSpaces() (*model.Response, error) {
	q := command.New(command.ListSpaces).WithUser(c.username())
	return c.Execute(q)
}

// Put 在当前空间写入键值对
func (c *Client) Put(key, value string) (*model.Response, error) {
	space, err := c.requireSpace()
	if err != nil {
		return nil, err
	}
	q := command.New(command.Put).
		WithKey(key).
		WithValue(value).
		WithSpace(space).
		WithUser(c.username())
	return c.Execute(q)
}

// Get 读取键值,键不存在时应答状态为错误而非返回 error
func (c *Client) Get(key string) (*model.Response, error) {
	space, err := c.requireSpace()
	if err != nil {
		return nil, err
	}
	q := command.New(command.Get).
		WithKey(key).
		WithSpace(space).
		WithUser(c.username())
	return c.Execute(q)
}

// Delete 删除键值对
func (c *Client) Delete(key string) (*model.Response, error) {
	space, err := c.requireSpace()
	if err != nil {
		return nil, err
	}
	q := command.New(command.Delete).
		WithKey(key).
		WithSpace(space).
		WithUser(c.username())
	return c.Execute(q)
}

// InsertVector 向向量空间插入向量,ID 序列化为字符串键
func (c *Client) InsertVector(vectorID int64, vec []float64) (*model.Response, error) {
	space, err := c.requireSpace()
	if err != nil {
		return nil, err
	}
	q := command.New(command.InsertVector).
		WithKey(strconv.FormatInt(vectorID, 10)).
		WithVector(vec).
		WithSpace(space).
		WithUser(c.username())
	return c.Execute(q)
}

// SearchTopK 检索 top-k 近邻,k 经 dimension 字段传递
func (c *Client) SearchTopK(vec []float64, k int) (*model.Response, error) {
	space, err := c.requireSpace()
	if err != nil {
		return nil, err
	}
	q := command.New(command.SearchTopK).
		WithVector(vec).
		WithSpace(space).
		WithUser(c.username()).
		WithField("dimension", k)
	return c.Execute(q)
}

// RangeSearch 按半径检索向量
func (c *Client) RangeSearch(vec []float64, radius float64) (*model.Response, error) {
	space, err := c.requireSpace()
	if err != nil {
		return nil, err
	}
	q := command.New(command.RangeSearch).
		WithVector(vec).
		WithSpace(space).
		WithUser(c.username()).
		WithField("radius", radius)
	return c.Execute(q)
}

// GetVector 按 ID 读取向量
func (c *Client) GetVector(vectorID int64) (*model.Response, error) {
	space, err := c.requireSpace()
	if err != nil {
		return nil, err
	}
	q := command.New(command.GetVector).
		WithKey(strconv.FormatInt(vectorID, 10)).
		WithSpace(space).
		WithUser(c.username())
	return c.Execute(q)
}

// CreateUser 创建用户,角色默认 user(仅管理员)
func (c *Client) CreateUser(u model.User) (*model.Response, error) {
	role := u.Role
	if role == "" {
		role = "user"
	}
	perms := u.Permissions
	if perms == nil {
		perms = map[string]string{}
	}

	q := command.New(command.CreateUser).
		WithUser(c.username()).
		WithField("new_user", map[string]any{
			"username":    u.Username,
			"password":    u.Password,
			"role":        role,
			"permissions": perms,
		})
	return c.Execute(q)
}

// GetUser 查询用户信息,用户名经 data 字段传递(仅管理员)
func (c *Client) GetUser(username string) (*model.Response, error) {
	q := command.New(command.GetUser).
		WithUser(c.username()).
		WithField("data", username)
	return c.Execute(q)
}

// UpdateUserPassword 修改用户密码(仅管理员)
func (c *Client) UpdateUserPassword(username, newPassword string) (*model.Response, error) {
	q := command.New(command.UpdateUserPassword).
		WithUser(c.username()).
		WithField("new_user", map[string]any{
			"username": username,
			"password": newPassword,
		})
	return c.Execute(q)
}

// UpdateUserRole 修改用户角色(仅管理员)
func (c *Client) UpdateUserRole(username, newRole string) (*model.Response, error) {
	q := command.New(command.UpdateUserRole).
		WithUser(c.username()).
		WithField("new_user", map[string]any{
			"username": username,
			"role":     newRole,
		})
	return c.Execute(q)
}

// UpdateUserPermissions 修改用户权限(仅管理员)
func (c *Client) UpdateUserPermissions(username string, permissions map[string]string) (*model.Response, error) {
	q := command.New(command.UpdateUserPermissions).
		WithUser(c.username()).
		WithField("new_user", map[string]any{
			"username":    username,
			"permissions": permissions,
		})
	return c.Execute(q)
}

// DeleteUser 删除用户(仅管理员)
func (c *Client) DeleteUser(username string) (*model.Response, error) {
	q := command.New(command.DeleteUser).
		WithUser(c.username()).
		WithField("delete_user", map[string]any{
			"username": username,
		})
	return c.Execute(q)
}
