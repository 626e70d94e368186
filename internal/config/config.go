package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	RedisAddr    string // empty disables the redis refresh queue
	LedgerURL    string // empty disables sale-history publishing
	OracleURL    string // empty disables live market lookups
	RefreshDelay time.Duration
	OutboxPoll   time.Duration
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "gradedesk.db" // sqlite file in project root
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./gradedesk.log"
	}

	cfg := Config{
		Port:         port,
		DBDSN:        dsn,
		LogFile:      logFile,
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		LedgerURL:    os.Getenv("LEDGER_URL"),
		OracleURL:    os.Getenv("ORACLE_URL"),
		RefreshDelay: durationEnv("REFRESH_DELAY", 15*time.Minute),
		OutboxPoll:   durationEnv("OUTBOX_POLL", 5*time.Second),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s REDIS_ADDR=%s LEDGER_URL=%s ORACLE_URL=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.RedisAddr, cfg.LedgerURL, cfg.OracleURL)
	return cfg
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
