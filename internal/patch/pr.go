package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/lucasnoah/mend/internal/workspace"
)

// PRConfig controls pull request creation. PRs are never opened unless
// Enabled is set.
type PRConfig struct {
	Enabled bool
	Owner   string
	Repo    string
	Token   string
	APIBase string // defaults to https://api.github.com
}

// PROpts describes the pull request to open.
type PROpts struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// PRResult reports what happened. Attempted is false when PR creation is
// disabled; Created carries the outcome when it was tried.
type PRResult struct {
	Attempted bool   `json:"attempted"`
	Created   bool   `json:"created"`
	URL       string `json:"url,omitempty"`
	Number    int    `json:"number,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CmdRunner provides gh CLI execution. Interface for testing.
type CmdRunner interface {
	Run(dir string, args ...string) (string, error)
}

// execGh runs gh via exec.Command.
type execGh struct{}

func (execGh) Run(dir string, args ...string) (string, error) {
	cmd := exec.Command("gh", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("gh %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// prClient opens pull requests, preferring the local gh CLI and falling
// back to the REST API when gh is unavailable.
type prClient struct {
	cfg  PRConfig
	gh   CmdRunner
	http *http.Client
}

func newPRClient(cfg PRConfig) *prClient {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.github.com"
	}
	return &prClient{
		cfg:  cfg,
		gh:   execGh{},
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Create opens a pull request for the workspace's current branch.
func (c *prClient) Create(ws *workspace.Workspace, opts PROpts) *PRResult {
	if !c.cfg.Enabled {
		return &PRResult{Attempted: false}
	}

	res := &PRResult{Attempted: true}
	if url, err := c.createViaCLI(ws, opts); err == nil {
		res.Created = true
		res.URL = url
		return res
	}

	url, number, err := c.createViaREST(opts)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Created = true
	res.URL = url
	res.Number = number
	return res
}

func (c *prClient) createViaCLI(ws *workspace.Workspace, opts PROpts) (string, error) {
	args := []string{"pr", "create", "--title", opts.Title, "--body", opts.Body, "--head", opts.Head}
	if opts.Base != "" {
		args = append(args, "--base", opts.Base)
	}
	if opts.Draft {
		args = append(args, "--draft")
	}
	return c.gh.Run(ws.Dir(), args...)
}

type prRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body"`
	Draft bool   `json:"draft"`
}

type prResponse struct {
	URL    string `json:"html_url"`
	Number int    `json:"number"`
}

func (c *prClient) createViaREST(opts PROpts) (string, int, error) {
	if c.cfg.Owner == "" || c.cfg.Repo == "" {
		return "", 0, fmt.Errorf("pr: owner/repo not configured for REST fallback")
	}
	if c.cfg.Token == "" {
		return "", 0, fmt.Errorf("pr: no token configured for REST fallback")
	}

	base := opts.Base
	if base == "" {
		base = "main"
	}
	body, err := json.Marshal(prRequest{
		Title: opts.Title,
		Head:  opts.Head,
		Base:  base,
		Body:  opts.Body,
		Draft: opts.Draft,
	})
	if err != nil {
		return "", 0, fmt.Errorf("pr: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls", c.cfg.APIBase, c.cfg.Owner, c.cfg.Repo)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("pr: create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("pr: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("pr: read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", 0, fmt.Errorf("pr: API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed prResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", 0, fmt.Errorf("pr: parse response: %w", err)
	}
	return parsed.URL, parsed.Number, nil
}
