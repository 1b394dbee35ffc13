package model

// model/response.go

// Response 服务端单行应答。Parsed 为 false 时表示应答不是合法 JSON,
// 原文被回退为纯文本成功消息,由调用方自行判定严重程度。
type Response struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Value   string   `json:"value,omitempty"`
	Spaces  []string `json:"spaces,omitempty"`
	User    *User    `json:"user,omitempty"`

	Parsed bool   `json:"-"`
	Raw    string `json:"-"`
}

// OK 应答状态是否为成功
func (r *Response) OK() bool {
	return r.Status == "OK"
}

// User 用户模型
type User struct {
	Username    string            `json:"username"`
	Password    string            `json:"password,omitempty"`
	Role        string            `json:"role,omitempty"`
	Permissions map[string]string `json:"permissions,omitempty"`
}

// SpaceInfo 空间元信息
type SpaceInfo struct {
	Name       string
	EngineType string
	Dimension  int
	IndexType  string
	Metric     string
}
