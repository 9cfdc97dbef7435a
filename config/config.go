// Package config resolves the runtime environment for cinelog: deployment
// environment, database location, upload directories and listen address.
// Values come from environment variables (optionally loaded from a .env
// file) with an optional TOML override file on top.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

// Env is the deployment environment selector.
type Env string

const (
	Local Env = "local"
	Dev   Env = "dev"
	Prod  Env = "prod"
)

// fileOverrides holds the optional TOML override file contents.
type fileOverrides struct {
	Listen        string `toml:"listen"`
	Port          int    `toml:"port"`
	BasePath      string `toml:"base_path"`
	DBFolder      string `toml:"db_folder"`
	UploadFolder  string `toml:"upload_folder"`
	MaxUploadSize int64  `toml:"max_upload_size"`
}

var overrides fileOverrides

func init() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if path := os.Getenv("CINELOG_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config file %s: %v\n", path, err)
			return
		}
		if err := toml.Unmarshal(data, &overrides); err != nil {
			fmt.Fprintf(os.Stderr, "config file %s: %v\n", path, err)
		}
	}
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetEnv() Env {
	switch os.Getenv("CINELOG_ENV") {
	case "prod", "aws":
		return Prod
	case "dev":
		return Dev
	default:
		return Local
	}
}

// IsProduction reports whether the session cookie must carry the Secure flag.
func IsProduction() bool {
	return GetEnv() == Prod
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("CINELOG_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("CINELOG_DEBUG") == "true"
}

func GetListen() string {
	if overrides.Listen != "" {
		return overrides.Listen
	}
	return os.Getenv("CINELOG_LISTEN")
}

func GetPort() int {
	if overrides.Port != 0 {
		return overrides.Port
	}
	if port, err := strconv.Atoi(os.Getenv("CINELOG_PORT")); err == nil && port > 0 {
		return port
	}
	return 8080
}

// GetBasePath returns the URL prefix all routes are mounted under.
// Always begins and ends with "/".
func GetBasePath() string {
	basePath := overrides.BasePath
	if basePath == "" {
		basePath = os.Getenv("CINELOG_BASE_PATH")
	}
	if basePath == "" {
		return "/"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath
}

func GetDBFolderPath() string {
	if overrides.DBFolder != "" {
		return overrides.DBFolder
	}
	if dbFolderPath := os.Getenv("CINELOG_DB_FOLDER"); dbFolderPath != "" {
		return dbFolderPath
	}
	return "/etc/cinelog"
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	if logFolderPath := os.Getenv("CINELOG_LOG_FOLDER"); logFolderPath != "" {
		return logFolderPath
	}
	return "/var/log"
}

// GetUploadFolder is the root of all uploaded images. User icons live in
// <root>/icon, item thumbnails in <root>/thumbnail.
func GetUploadFolder() string {
	if overrides.UploadFolder != "" {
		return overrides.UploadFolder
	}
	if dir := os.Getenv("CINELOG_UPLOAD_FOLDER"); dir != "" {
		return dir
	}
	return "uploads"
}

func GetIconFolder() string {
	return GetUploadFolder() + "/icon"
}

func GetThumbnailFolder() string {
	return GetUploadFolder() + "/thumbnail"
}

// GetMaxUploadSize is the per-file upload limit in bytes.
func GetMaxUploadSize() int64 {
	if overrides.MaxUploadSize > 0 {
		return overrides.MaxUploadSize
	}
	if v, err := strconv.ParseInt(os.Getenv("CINELOG_MAX_UPLOAD_SIZE"), 10, 64); err == nil && v > 0 {
		return v
	}
	return 1_000_000
}

// GetSessionSecret returns the key used to authenticate session cookies.
// An empty value makes the server generate an ephemeral key at startup.
func GetSessionSecret() string {
	return os.Getenv("CINELOG_SESSION_SECRET")
}
