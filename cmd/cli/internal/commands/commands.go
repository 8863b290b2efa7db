package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/refconnect/refconnect-cli/internal/admin"
	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/chat"
	"github.com/refconnect/refconnect-cli/internal/feed"
	"github.com/refconnect/refconnect-cli/internal/matches"
	"github.com/refconnect/refconnect-cli/internal/moderation"
	"github.com/refconnect/refconnect-cli/internal/notify"
	"github.com/refconnect/refconnect-cli/internal/profile"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/social"
	"github.com/refconnect/refconnect-cli/internal/upload"
)

type Globals struct {
	Debug   bool
	Version string
	Server  string
	Config  string
}

// FileConfig is the optional YAML config file. Flags take precedence over it.
type FileConfig struct {
	Server   string `yaml:"server"`
	Timeout  int    `yaml:"timeout"`
	CacheDir string `yaml:"cacheDir"`
	DataDir  string `yaml:"dataDir"`
}

// Env is the wired application: one shared client, the session manager, and
// every store hanging off them. Commands build it once per invocation.
type Env struct {
	Client        *api.Client
	Sessions      *session.Manager
	Profiles      *profile.Cache
	Feed          *feed.Store
	Social        *social.Store
	Matches       *matches.Store
	Chats         *chat.Store
	Notifications *notify.Store
	Uploader      *upload.Uploader
	Admin         *admin.Store
}

func newEnv(globals *Globals) (*Env, error) {
	var fileCfg FileConfig
	if globals.Config != "" {
		data, err := os.ReadFile(globals.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	server := globals.Server
	if server == "" {
		server = fileCfg.Server
	}
	if server == "" {
		return nil, fmt.Errorf("server URL is required (use --server or the config file)")
	}

	cfg := api.DefaultConfig()
	cfg.BaseURL = server
	cfg.UserAgent = "refconnect-cli/" + globals.Version
	if fileCfg.Timeout > 0 {
		cfg.Timeout = time.Duration(fileCfg.Timeout) * time.Second
	}
	if fileCfg.CacheDir != "" {
		cfg.HTTPClient = api.NewCachingHTTPClient(fileCfg.CacheDir)
		cfg.HTTPClient.Timeout = cfg.Timeout
	}

	client, err := api.New(cfg)
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(fileCfg.DataDir)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(store, client)
	if _, err := manager.Hydrate(); err != nil {
		log.Warn().Err(err).Msg("failed to restore session")
	}

	profiles := profile.NewCache(client)
	checker := moderation.NewChecker(client)

	return &Env{
		Client:        client,
		Sessions:      manager,
		Profiles:      profiles,
		Feed:          feed.New(client, manager, checker),
		Social:        social.New(client, manager),
		Matches:       matches.New(client, manager, profiles),
		Chats:         chat.New(client, manager, profiles),
		Notifications: notify.New(client, manager, profiles, store),
		Uploader:      upload.NewUploader(client),
		Admin:         admin.New(client, manager),
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
