package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	// Location used to derive the calendar date of a submission.
	Timezone *time.Location

	ExecutorURL      string
	ExecutorTimeout  time.Duration
	JudgeConcurrency int

	PaymentBaseURL       string
	PaymentClientID      string
	PaymentClientSecret  string
	PaymentClientVersion int
	PaymentTimeout       time.Duration
	PaymentCallbackURL   string

	ReconcileInProcess  bool
	ReconcileQueueName  string
	ReconcileLockTTL    time.Duration
	ReconcileMaxAttempt int
	ReconcilePollDelay  time.Duration

	LeaderboardCacheKey string
	LeaderboardCacheTTL time.Duration
}

var AppConfig *Config

var defaults = map[string]any{
	"API_PORT":                      "8080",
	"JWT_SECRET":                    "defaultsecret",
	"JWT_EXPIRATION_HOURS":          72,
	"DB_HOST":                       "localhost",
	"DB_PORT":                       "5432",
	"DB_USER":                       "user",
	"DB_PASSWORD":                   "password",
	"DB_NAME":                       "codeapt",
	"DB_SSLMODE":                    "disable",
	"DB_AUTO_MIGRATE":               true,
	"REDIS_ADDR":                    "localhost:6379",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"LOG_LEVEL":                     "info",
	"LOG_FORMAT":                    "json",
	"APP_TIMEZONE":                  "UTC",
	"EXECUTOR_URL":                  "https://emkc.org/api/v2/piston/execute",
	"EXECUTOR_TIMEOUT_SECONDS":      10,
	"JUDGE_CONCURRENCY":             4,
	"PAYMENT_BASE_URL":              "https://api-preprod.phonepe.com/apis/pg-sandbox",
	"PAYMENT_CLIENT_ID":             "",
	"PAYMENT_CLIENT_SECRET":         "",
	"PAYMENT_CLIENT_VERSION":        1,
	"PAYMENT_TIMEOUT_SECONDS":       15,
	"PAYMENT_CALLBACK_URL":          "http://localhost:8080/api/v1/payment/callback",
	"RECONCILE_IN_PROCESS":          true,
	"RECONCILE_QUEUE_NAME":          "payment_reconcile_queue",
	"RECONCILE_LOCK_TTL_SECONDS":    30,
	"RECONCILE_MAX_ATTEMPTS":        20,
	"RECONCILE_POLL_DELAY_SECONDS":  15,
	"LEADERBOARD_CACHE_KEY":         "leaderboard:top",
	"LEADERBOARD_CACHE_TTL_SECONDS": 60,
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	AppConfig = FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	loc, err := time.LoadLocation(v.GetString("APP_TIMEZONE"))
	if err != nil {
		log.Printf("Unknown APP_TIMEZONE %q, falling back to UTC", v.GetString("APP_TIMEZONE"))
		loc = time.UTC
	}

	c := &Config{
		APIPort:       v.GetString("API_PORT"),
		JWTKey:        []byte(v.GetString("JWT_SECRET")),
		JWTExp:        time.Duration(v.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour,
		DBHost:        v.GetString("DB_HOST"),
		DBPort:        v.GetString("DB_PORT"),
		DBUser:        v.GetString("DB_USER"),
		DBPassword:    v.GetString("DB_PASSWORD"),
		DBName:        v.GetString("DB_NAME"),
		DBSslMode:     v.GetString("DB_SSLMODE"),
		DBAutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		Timezone:      loc,

		ExecutorURL:      v.GetString("EXECUTOR_URL"),
		ExecutorTimeout:  time.Duration(v.GetInt("EXECUTOR_TIMEOUT_SECONDS")) * time.Second,
		JudgeConcurrency: v.GetInt("JUDGE_CONCURRENCY"),

		PaymentBaseURL:       v.GetString("PAYMENT_BASE_URL"),
		PaymentClientID:      v.GetString("PAYMENT_CLIENT_ID"),
		PaymentClientSecret:  v.GetString("PAYMENT_CLIENT_SECRET"),
		PaymentClientVersion: v.GetInt("PAYMENT_CLIENT_VERSION"),
		PaymentTimeout:       time.Duration(v.GetInt("PAYMENT_TIMEOUT_SECONDS")) * time.Second,
		PaymentCallbackURL:   v.GetString("PAYMENT_CALLBACK_URL"),

		ReconcileInProcess:  v.GetBool("RECONCILE_IN_PROCESS"),
		ReconcileQueueName:  v.GetString("RECONCILE_QUEUE_NAME"),
		ReconcileLockTTL:    time.Duration(v.GetInt("RECONCILE_LOCK_TTL_SECONDS")) * time.Second,
		ReconcileMaxAttempt: v.GetInt("RECONCILE_MAX_ATTEMPTS"),
		ReconcilePollDelay:  time.Duration(v.GetInt("RECONCILE_POLL_DELAY_SECONDS")) * time.Second,

		LeaderboardCacheKey: v.GetString("LEADERBOARD_CACHE_KEY"),
		LeaderboardCacheTTL: time.Duration(v.GetInt("LEADERBOARD_CACHE_TTL_SECONDS")) * time.Second,
	}

	c.DBConnStr = "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.DBSslMode
	return c
}
