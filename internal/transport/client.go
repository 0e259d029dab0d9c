package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/draft"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/session"
)

// Client talks to a running habitline server.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), http: http.DefaultClient}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Message != "" {
			return fmt.Errorf("%s %s: %s", method, path, e.Message)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Sessions lists live session ids, oldest first.
func (c *Client) Sessions(ctx context.Context) ([]string, error) {
	var out struct {
		Sessions []string `json:"sessions"`
	}
	err := c.do(ctx, http.MethodGet, "/sessions", nil, &out)
	return out.Sessions, err
}

func (c *Client) CreateSession(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	err := c.do(ctx, http.MethodPost, "/sessions", nil, &info)
	return info, err
}

// Draft fetches the session's current draft.
func (c *Client) Draft(ctx context.Context, sessionID string) (models.Draft, error) {
	var d models.Draft
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/draft", nil, &d)
	return d, err
}

// CallTool invokes a tool by name.
func (c *Client) CallTool(ctx context.Context, sessionID, tool string, args any) (session.ToolResult, error) {
	var res session.ToolResult
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/tools/"+url.PathEscape(tool), args, &res)
	return res, err
}

// Envelope is a pushed message with its payload left encoded.
type Envelope struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Draft decodes the payload of a draft message.
func (e Envelope) Draft() (models.Draft, error) {
	var d models.Draft
	if e.Type != constants.MessageTypeDraft {
		return d, fmt.Errorf("message type %q carries no draft", e.Type)
	}
	err := json.Unmarshal(e.Payload, &d)
	return d, err
}

// Conn is a display's live connection to one session.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Dial opens the session's websocket.
func (c *Client) Dial(ctx context.Context, sessionID string) (*Conn, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/sessions/" + url.PathEscape(sessionID) + "/ws"

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to session %s: %s", sessionID, resp.Status)
		}
		return nil, fmt.Errorf("failed to connect to session %s: %w", sessionID, err)
	}
	return &Conn{ws: ws}, nil
}

// Next blocks until the server pushes a message.
func (c *Conn) Next() (Envelope, error) {
	var env Envelope
	err := c.ws.ReadJSON(&env)
	return env, err
}

func (c *Conn) Confirm() error {
	return c.send(session.ConfirmAction{})
}

// UpdateItem asks the server to move or resize a draft item. Empty fields
// are left unchanged.
func (c *Conn) UpdateItem(itemID string, req draft.UpdateRequest) error {
	return c.send(session.UpdateItemAction{ItemID: itemID, UpdateRequest: req})
}

func (c *Conn) send(a session.Action) error {
	data, err := session.EncodeAction(a)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}
