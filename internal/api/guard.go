package api

import "context"

// GuardConfig mirrors the Git-Guard server's configuration object.
type GuardConfig struct {
	TemplateFormat    string `json:"template_format"`
	CustomRules       string `json:"custom_rules"`
	GithubRepoURL     string `json:"github_repo_url"`
	CIIntervalMinutes int    `json:"ci_interval_minutes"`
}

// CIStatus is the result of the most recent pipeline run.
type CIStatus struct {
	LastRun string `json:"last_run"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

type updateConfigResponse struct {
	Status string      `json:"status"`
	Config GuardConfig `json:"config"`
}

type triggerResponse struct {
	Status string `json:"status"`
}

func (c *Client) FetchGuardConfig(ctx context.Context) (GuardConfig, error) {
	var cfg GuardConfig
	if err := c.getJSON(ctx, "/api/v1/config", &cfg); err != nil {
		return GuardConfig{}, err
	}
	return cfg, nil
}

func (c *Client) UpdateGuardConfig(ctx context.Context, cfg GuardConfig) (GuardConfig, error) {
	var resp updateConfigResponse
	if err := c.postJSON(ctx, "/api/v1/config", cfg, &resp); err != nil {
		return GuardConfig{}, err
	}
	return resp.Config, nil
}

func (c *Client) FetchCIStatus(ctx context.Context) (CIStatus, error) {
	var status CIStatus
	if err := c.getJSON(ctx, "/api/v1/ci/status", &status); err != nil {
		return CIStatus{}, err
	}
	return status, nil
}

// TriggerCI asks the server to run the pipeline now. The run itself is
// asynchronous; poll FetchCIStatus for the outcome.
func (c *Client) TriggerCI(ctx context.Context) error {
	var resp triggerResponse
	return c.postJSON(ctx, "/api/v1/ci/run", nil, &resp)
}
