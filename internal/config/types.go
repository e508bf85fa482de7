package config

// Config is the top-level configuration structure parsed from mend YAML.
type Config struct {
	Agent    Agent    `yaml:"agent"`
	Planner  Planner  `yaml:"planner"`
	Executor Executor `yaml:"executor"`
	PR       PR       `yaml:"pr"`
	Memory   Memory   `yaml:"memory"`
	DB       DB       `yaml:"db"`
}

// Agent controls the remediation loop.
type Agent struct {
	MaxSteps int `yaml:"max_steps"`
}

// Planner controls plan generation and oracle access.
type Planner struct {
	OracleTimeout string `yaml:"oracle_timeout"`
	CacheTTL      string `yaml:"cache_ttl"`
	DeepModel     string `yaml:"deep_model"`
	FastModel     string `yaml:"fast_model"`
	BaseURL       string `yaml:"base_url"`
}

// Executor controls patch application and test execution.
type Executor struct {
	RepoDir        string `yaml:"repo_dir"`
	SandboxDir     string `yaml:"sandbox_dir"`
	DefaultTestDir string `yaml:"default_test_dir"`
	TestTimeout    string `yaml:"test_timeout"`
}

// PR controls optional pull-request creation for committed fixes.
type PR struct {
	Enabled bool   `yaml:"enabled"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Token   string `yaml:"token"`
	APIBase string `yaml:"api_base"`
	Base    string `yaml:"base"`
}

// Memory locates the bug memory log.
type Memory struct {
	Path string `yaml:"path"`
}

// DB locates the run-history database.
type DB struct {
	Path string `yaml:"path"`
}
