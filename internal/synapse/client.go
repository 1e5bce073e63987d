package synapse

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// DefaultEndpoint is the production REST endpoint of the store service.
const DefaultEndpoint = "https://repo-prod.prod.sagebase.org/repo/v1"

// ClientOptions configures a REST client.
type ClientOptions struct {
	Endpoint  string
	AuthToken string
	Timeout   time.Duration
	Logger    *logger.Logger
}

// Client talks to the remote store over its REST API. All failures are
// surfaced as InfraError so callers can abort cleanly.
type Client struct {
	endpoint string
	token    string
	httpc    *http.Client
	logger   *logger.Logger
}

// NewClient creates a REST client for the remote store.
func NewClient(opts ClientOptions) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    opts.AuthToken,
		httpc:    &http.Client{Timeout: timeout},
		logger:   opts.Logger,
	}
}

var _ Store = (*Client)(nil)

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return genieerrors.NewInfraError(op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return genieerrors.NewInfraError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debugf("%s %s", method, path)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return genieerrors.NewInfraError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return genieerrors.NewInfraError(op, fmt.Errorf("%s %s: status %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return genieerrors.NewInfraError(op, err)
	}
	return nil
}

var errNotFound = fmt.Errorf("not found")

func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.do(ctx, "get project", http.MethodGet, "/project/"+url.PathEscape(id), nil, &project); err != nil {
		if err == errNotFound {
			return nil, genieerrors.NewInfraError("get project", fmt.Errorf("project %s not found", id))
		}
		return nil, err
	}
	return &project, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	var project Project
	in := map[string]string{"name": name}
	if err := c.do(ctx, "create project", http.MethodPost, "/project", in, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) SetAnnotation(ctx context.Context, projectID, key, value string) error {
	in := map[string]string{key: value}
	return c.do(ctx, "set annotation", http.MethodPut,
		"/project/"+url.PathEscape(projectID)+"/annotations", in, nil)
}

func (c *Client) StoreFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	var folder Folder
	in := Folder{Name: name, ParentID: parentID}
	if err := c.do(ctx, "store folder", http.MethodPost, "/folder", in, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (c *Client) FindTable(ctx context.Context, name, parentID string) (*Table, error) {
	var table Table
	path := fmt.Sprintf("/table?name=%s&parentId=%s", url.QueryEscape(name), url.QueryEscape(parentID))
	if err := c.do(ctx, "find table", http.MethodGet, path, nil, &table); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &table, nil
}

func (c *Client) GetTable(ctx context.Context, id string) (*Table, error) {
	var table Table
	if err := c.do(ctx, "get table", http.MethodGet, "/table/"+url.PathEscape(id), nil, &table); err != nil {
		if err == errNotFound {
			return nil, genieerrors.NewInfraError("get table", fmt.Errorf("table %s not found", id))
		}
		return nil, err
	}
	return &table, nil
}

func (c *Client) MoveTable(ctx context.Context, tableID, parentID, name string) (*Table, error) {
	var moved Table
	in := map[string]string{"parentId": parentID, "name": name}
	path := "/table/" + url.PathEscape(tableID) + "/move"
	if err := c.do(ctx, "move table", http.MethodPost, path, in, &moved); err != nil {
		return nil, err
	}
	return &moved, nil
}

func (c *Client) CreateTable(ctx context.Context, table Table) (*Table, error) {
	var created Table
	if err := c.do(ctx, "create table", http.MethodPost, "/table", table, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) QueryRows(ctx context.Context, tableID string, filter map[string]string) ([]Row, error) {
	var out struct {
		Rows []Row `json:"rows"`
	}
	in := map[string]any{"filter": filter}
	path := "/table/" + url.PathEscape(tableID) + "/query"
	if err := c.do(ctx, "query rows", http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (c *Client) UpsertRows(ctx context.Context, tableID, key string, rows []Row) error {
	in := map[string]any{"key": key, "rows": rows}
	path := "/table/" + url.PathEscape(tableID) + "/rows"
	return c.do(ctx, "upsert rows", http.MethodPost, path, in, nil)
}

func (c *Client) DeleteRows(ctx context.Context, tableID, key string, values []string) error {
	in := map[string]any{"key": key, "values": values}
	path := "/table/" + url.PathEscape(tableID) + "/rows/delete"
	return c.do(ctx, "delete rows", http.MethodPost, path, in, nil)
}

func (c *Client) StoreFile(ctx context.Context, path, parentID string) (*Entity, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, genieerrors.NewInfraError("store file", err)
	}

	var entity Entity
	in := map[string]string{
		"name":     filepath.Base(path),
		"parentId": parentID,
		"content":  base64.StdEncoding.EncodeToString(content),
	}
	if err := c.do(ctx, "store file", http.MethodPost, "/file", in, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (c *Client) ListFiles(ctx context.Context, folderID string) ([]Entity, error) {
	var out struct {
		Files []Entity `json:"files"`
	}
	path := "/folder/" + url.PathEscape(folderID) + "/files"
	if err := c.do(ctx, "list files", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) GetFile(ctx context.Context, id string) (*Entity, error) {
	var out struct {
		Entity
		Content string `json:"content"`
	}
	if err := c.do(ctx, "get file", http.MethodGet, "/file/"+url.PathEscape(id), nil, &out); err != nil {
		if err == errNotFound {
			return nil, genieerrors.NewInfraError("get file", fmt.Errorf("file %s not found", id))
		}
		return nil, err
	}

	content, err := base64.StdEncoding.DecodeString(out.Content)
	if err != nil {
		return nil, genieerrors.NewInfraError("get file", err)
	}

	dir, err := os.MkdirTemp("", "synapsegenie-cache")
	if err != nil {
		return nil, genieerrors.NewInfraError("get file", err)
	}
	local := filepath.Join(dir, out.Name)
	if err := os.WriteFile(local, content, 0o644); err != nil {
		return nil, genieerrors.NewInfraError("get file", err)
	}

	entity := out.Entity
	entity.Path = local
	return &entity, nil
}

func (c *Client) SendMessage(ctx context.Context, userIDs []string, subject, body string) error {
	in := map[string]any{"userIds": userIDs, "subject": subject, "body": body}
	return c.do(ctx, "send message", http.MethodPost, "/message", in, nil)
}
