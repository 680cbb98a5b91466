// Package config construit la configuration une seule fois au démarrage:
// valeurs par défaut, fichier YAML optionnel, .env, puis variables d'environnement.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrRemoteRequired est renvoyée par RequireRemote quand la clé ou l'ID Notion manque.
var ErrRemoteRequired = errors.New("missing NOTION_API_KEY or NOTION_BOOKLIST_DATABASE_ID")

const defaultDataDir = "config"

type Config struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`

	Paths  Paths  `yaml:"paths"`
	Notion Notion `yaml:"notion"`
	Log    Log    `yaml:"log"`
	CORS   CORS   `yaml:"cors"`
	API    API    `yaml:"api"`

	// DriftCheck est une expression cron; vide désactive la vérification périodique.
	DriftCheck string `yaml:"drift_check"`
}

type Paths struct {
	Schedule           string `yaml:"schedule"`
	Leaders            string `yaml:"leaders"`
	InvitationTemplate string `yaml:"invitation_template"`
	OutputDir          string `yaml:"output_dir"`
}

type Notion struct {
	APIKey     string        `yaml:"api_key"`
	DatabaseID string        `yaml:"database_id"`
	BaseURL    string        `yaml:"base_url"`
	Version    string        `yaml:"version"`
	Timeout    time.Duration `yaml:"timeout"`

	// MaxConcurrent plafonne les requêtes Notion simultanées.
	MaxConcurrent int              `yaml:"max_concurrent"`
	Properties    NotionProperties `yaml:"properties"`
}

type NotionProperties struct {
	Title  string `yaml:"title"`
	Date   string `yaml:"date"`
	Leader string `yaml:"leader"`
	Host   string `yaml:"host"`
	Author string `yaml:"author"`
	Status string `yaml:"status"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type API struct {
	// Candidates est la liste ordonnée des URL de base essayées par le client.
	Candidates []string `yaml:"candidates"`
}

func Default() Config {
	dataDir := envOr("BOOKCLUB_DATA_DIR", defaultDataDir)
	return Config{
		Addr:   "127.0.0.1:8080",
		DBPath: "bookclub.db",
		Paths: Paths{
			Schedule:           filepath.Join(dataDir, "book-schedule.json"),
			Leaders:            filepath.Join(dataDir, "leaders.json"),
			InvitationTemplate: filepath.Join(dataDir, "invitation.template.json"),
			OutputDir:          "invitations",
		},
		Notion: Notion{
			BaseURL: "https://api.notion.com",
			Version: "2022-06-28",
			Timeout: 30 * time.Second,
			Properties: NotionProperties{
				Title:  "书名",
				Date:   "排期",
				Leader: "领读人",
				Host:   "主持人",
				Author: "作者",
				Status: "进度",
			},
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		CORS: CORS{AllowedOrigins: []string{"http://localhost:3000"}},
		API: API{Candidates: []string{
			"http://127.0.0.1:8080",
			"http://localhost:8080",
			"http://localhost:3001",
		}},
		DriftCheck: "@every 1h",
	}
}

// Load lit path (absent = valeurs par défaut), puis les fichiers .env
// (".env" si aucun n'est donné; absents ignorés), puis l'environnement.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv ne remplace jamais une variable déjà définie.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Notion.APIKey = envOr("NOTION_API_KEY", c.Notion.APIKey)
	c.Notion.DatabaseID = envOr("NOTION_BOOKLIST_DATABASE_ID", c.Notion.DatabaseID)
	c.Addr = envOr("BOOKCLUB_ADDR", c.Addr)
	c.DBPath = envOr("BOOKCLUB_DB_PATH", c.DBPath)
	c.Log.Level = envOr("BOOKCLUB_LOG_LEVEL", c.Log.Level)
	if v := os.Getenv("BOOKCLUB_API_URLS"); v != "" {
		c.API.Candidates = splitList(v)
	}
}

// Normalize complète les valeurs manquantes d'un fichier partiel.
func (c *Config) Normalize() {
	def := Default()
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = def.Addr
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = def.DBPath
	}
	if c.Paths.Schedule == "" {
		c.Paths.Schedule = def.Paths.Schedule
	}
	if c.Paths.Leaders == "" {
		c.Paths.Leaders = def.Paths.Leaders
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = def.Paths.OutputDir
	}
	c.Notion.APIKey = strings.TrimSpace(c.Notion.APIKey)
	c.Notion.DatabaseID = strings.TrimSpace(c.Notion.DatabaseID)
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = def.Notion.BaseURL
	}
	if c.Notion.Version == "" {
		c.Notion.Version = def.Notion.Version
	}
	if c.Notion.Timeout <= 0 {
		c.Notion.Timeout = def.Notion.Timeout
	}
	p := &c.Notion.Properties
	if p.Title == "" {
		p.Title = def.Notion.Properties.Title
	}
	if p.Date == "" {
		p.Date = def.Notion.Properties.Date
	}
	if p.Leader == "" {
		p.Leader = def.Notion.Properties.Leader
	}
	if p.Host == "" {
		p.Host = def.Notion.Properties.Host
	}
	if p.Author == "" {
		p.Author = def.Notion.Properties.Author
	}
	if p.Status == "" {
		p.Status = def.Notion.Properties.Status
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if c.Log.MaxBackups < 0 {
		c.Log.MaxBackups = 0
	}
	if c.CORS.AllowedOrigins == nil {
		c.CORS.AllowedOrigins = def.CORS.AllowedOrigins
	}
	if len(c.API.Candidates) == 0 {
		c.API.Candidates = def.API.Candidates
	}
	for i, u := range c.API.Candidates {
		c.API.Candidates[i] = strings.TrimRight(strings.TrimSpace(u), "/")
	}
}

// RemoteEnabled indique si le store distant est configuré.
func (c Config) RemoteEnabled() bool {
	return c.Notion.APIKey != "" && c.Notion.DatabaseID != ""
}

// RequireRemote échoue pour les commandes qui n'ont pas de mode local.
func (c Config) RequireRemote() error {
	if !c.RemoteEnabled() {
		return ErrRemoteRequired
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
