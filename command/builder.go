package command

// command/builder.go

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Type 命令类型,对应协议 type 字段
type Type string

const (
	UseSpace              Type = "USE_SPACE"
	CreateSpace           Type = "CREATE_SPACE"
	DeleteSpace           Type = "DELETE_SPACE"
	ListSpaces            Type = "LIST_SPACES"
	Put                   Type = "PUT"
	Get                   Type = "GET"
	Delete                Type = "DELETE"
	InsertVector          Type = "INSERT_VECTOR"
	SearchTopK            Type = "SEARCH_TOPK"
	RangeSearch           Type = "RANGE_SEARCH"
	GetVector             Type = "GET_VECTOR"
	CreateUser            Type = "CREATE_USER"
	GetUser               Type = "GET_USER"
	UpdateUserPassword    Type = "UPDATE_USER_PASSWORD"
	UpdateUserRole        Type = "UPDATE_USER_ROLE"
	UpdateUserPermissions Type = "UPDATE_USER_PERMISSIONS"
	DeleteUser            Type = "DELETE_USER"
)

// Query 单条请求构造器,构造结果为一行 JSON
type Query struct {
	fields map[string]any
}

func New(t Type) *Query {
	return &Query{
		fields: map[string]any{"type": string(t)},
	}
}

// Auth 认证请求,直接携带凭据,不含 type 字段
func Auth(username, password string) *Query {
	return &Query{
		fields: map[string]any{
			"username": username,
			"password": password,
		},
	}
}

func (q *Query) WithField(key string, value any) *Query {
	q.fields[key] = value
	return q
}

func (q *Query) WithUser(username string) *Query {
	return q.WithField("user", username)
}

func (q *Query) WithSpace(space string) *Query {
	return q.WithField("space", space)
}

func (q *Query) WithKey(key string) *Query {
	return q.WithField("key", key)
}

func (q *Query) WithValue(value string) *Query {
	return q.WithField("value", value)
}

// WithVector 向量按逗号分隔字符串写入 value 字段
func (q *Query) WithVector(vec []float64) *Query {
	return q.WithField("value", EncodeVector(vec))
}

// Type 返回 type 字段,认证请求返回空串
func (q *Query) Type() string {
	t, _ := q.fields["type"].(string)
	return t
}

// Build 序列化为一行换行结尾的 JSON 请求
func (q *Query) Build() ([]byte, error) {
	data, err := json.Marshal(q.fields)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// EncodeVector 向量编码为逗号分隔的浮点字符串
func EncodeVector(vec []float64) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
