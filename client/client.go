package client

// client/client.go

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ApocalypseJiaWei/go_shibudb/command"
	"github.com/ApocalypseJiaWei/go_shibudb/model"
)

// Client 一条 ShibuDb 会话连接:单个 TCP 连接上按行交换 JSON 请求与应答
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration

	mu     sync.Mutex
	alive  bool
	closed bool

	authenticated bool
	currentUser   model.User
	currentSpace  string
}

// New 建立到服务端的连接,认证另行调用 Authenticate
func New(host string, port int, timeout time.Duration) (*Client, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnectionFailure, address, err)
	}

	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
		alive:   true,
	}, nil
}

// Authenticate 执行凭据交换,成功后记录服务端回报的身份信息
func (c *Client) Authenticate(username, password string) (*model.Response, error) {
	resp, err := c.Execute(command.Auth(username, password))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, fmt.Errorf("%w: %s", ErrAuthenticationFailure, resp.Message)
	}

	c.mu.Lock()
	c.authenticated = true
	c.currentUser = model.User{Username: username}
	if resp.User != nil {
		if resp.User.Username != "" {
			c.currentUser.Username = resp.User.Username
		}
		c.currentUser.Role = resp.User.Role
		c.currentUser.Permissions = resp.User.Permissions
	}
	c.mu.Unlock()

	return resp, nil
}

// Execute 写出一行请求并读回一行应答
func (c *Client) Execute(q *command.Query) (*model.Response, error) {
	payload, err := q.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrQueryFailure, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.alive {
		return nil, fmt.Errorf("%w: session closed", ErrQueryFailure)
	}

	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := c.conn.Write(payload); err != nil {
		c.alive = false
		return nil, fmt.Errorf("%w: write: %v", ErrQueryFailure, err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.alive = false
		return nil, fmt.Errorf("%w: read: %v", ErrQueryFailure, err)
	}

	return decodeResponse(strings.TrimRight(line, "\r\n")), nil
}

// Probe 以 LIST_SPACES 作为无副作用的存活探测,结果本身被丢弃
func (c *Client) Probe() error {
	resp, err := c.ListSpaces()
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: probe status %q", ErrQueryFailure, resp.Status)
	}
	return nil
}

// Close 释放底层连接,重复调用无效果
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.alive = false
	return c.conn.Close()
}

// CurrentUser 认证后服务端确认的身份
func (c *Client) CurrentUser() model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentUser
}

// CurrentSpace 当前选中的空间,未选择时为空串
func (c *Client) CurrentSpace() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSpace
}

func (c *Client) username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentUser.Username
}

func (c *Client) requireSpace() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentSpace == "" {
		return "", ErrNoSpaceSelected
	}
	return c.currentSpace, nil
}

// decodeResponse 宽松解析应答:字符串内的原始控制字符被就地转义后再解析;
// 完全无法解析时回退为纯文本成功消息,以 Parsed=false 标记回退
func decodeResponse(raw string) *model.Response {
	resp := &model.Response{Raw: raw}
	if err := json.Unmarshal([]byte(escapeControlChars(raw)), resp); err != nil {
		return &model.Response{Status: "OK", Message: raw, Raw: raw}
	}
	resp.Parsed = true
	return resp
}

// escapeControlChars 服务端不保证严格转义,字符串字面量内的控制字符按
// \u00XX 形式补转义,其余内容原样保留
func escapeControlChars(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString := false
	escaped := false
	for _, r := range raw {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case inString && r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inString = !inString
			b.WriteRune(r)
		case inString && r < 0x20:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
