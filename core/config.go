package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	StoreConfig struct {
		// Engine selects the user store backend: "memory" (DEV/TEST) or "firestore".
		Engine             string
		FirestoreProjectID string
		// DirectoryEngine selects the directory-entry backend: "store" (same as Engine) or "sqlite".
		DirectoryEngine string
		SQLitePath      string
	}

	PushConfig struct {
		ProjectID   string
		BearerToken string
		// ServiceAccountKeyFile would let us mint the bearer token ourselves.
		// The minting path is not active; the token is provisioned out-of-band.
		ServiceAccountKeyFile string
	}

	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool

		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string
		WorkDir          string

		Server ServerConfig
		Store  StoreConfig
		Push   PushConfig
	}
)

// NewConfig resolves the application configuration from defaults, an optional
// config/.env.<env> file and environment variables, in increasing precedence.
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Shule")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "w3ak-d3v-k3y-ch4ng3-m3")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("serverHost", "0.0.0.0:8000")
	conf.SetDefault("serverDebugHost", "0.0.0.0:4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 4*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("storeEngine", "memory")
	conf.SetDefault("directoryEngine", "sqlite")
	conf.SetDefault("sqlitePath", filepath.Join(Getwd(), "directory.db"))

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridAPIKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		WorkDir:          Getwd(),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Store: StoreConfig{
			Engine:             conf.GetString("storeEngine"),
			FirestoreProjectID: conf.GetString("firestoreProjectId"),
			DirectoryEngine:    conf.GetString("directoryEngine"),
			SQLitePath:         conf.GetString("sqlitePath"),
		},
		Push: PushConfig{
			ProjectID:             conf.GetString("fcmProjectId"),
			BearerToken:           conf.GetString("fcmBearerToken"),
			ServiceAccountKeyFile: conf.GetString("fcmServiceAccountKeyFile"),
		},
	}
}

func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd: %v", err)
	}
	return wd
}
