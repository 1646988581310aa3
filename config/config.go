package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTAccessSecret    string
	JWTRefreshSecret   string
	JWTAccessTTLHours  int
	JWTRefreshTTLHours int

	// ✅ Redis Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ✅ Payment Processor Keys
	RazorpayKey    string
	RazorpaySecret string

	// ✅ Kafka Config (settlement feed)
	KafkaBrokers         string
	KafkaSettlementTopic string
	KafkaGroupID         string

	// ✅ SMTP Config (reconciliation review alerts)
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromName  string
	SMTPFromEmail string
	AlertEmail    string

	// ✅ Payout business constants. Global configuration, not per-tenant
	// values; the defaults match the finance team's contract.
	FixedFeePerDonation  decimal.Decimal // flat service fee per donation
	PlatformSharePercent decimal.Decimal // platform's share of net amount
	ReconcileEpsilon     decimal.Decimal // |diff| below this is a match
	ReconcileDelta       decimal.Decimal // |diff| above this needs review
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	accessTTL, _ := strconv.Atoi(os.Getenv("JWT_ACCESS_TTL_HOURS"))
	refreshTTL, _ := strconv.Atoi(os.Getenv("JWT_REFRESH_TTL_HOURS"))
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	return &Config{
		Port: os.Getenv("PORT"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTAccessSecret:    os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:   os.Getenv("JWT_REFRESH_SECRET"),
		JWTAccessTTLHours:  accessTTL,
		JWTRefreshTTLHours: refreshTTL,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RazorpayKey:    os.Getenv("RAZORPAY_KEY_ID"),
		RazorpaySecret: os.Getenv("RAZORPAY_KEY_SECRET"),

		KafkaBrokers:         getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaSettlementTopic: getEnv("KAFKA_SETTLEMENT_TOPIC", "settlements"),
		KafkaGroupID:         getEnv("KAFKA_GROUP_ID", "givecircle-backend"),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      os.Getenv("SMTP_PORT"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFromName:  os.Getenv("SMTP_FROM_NAME"),
		SMTPFromEmail: os.Getenv("SMTP_FROM_EMAIL"),
		AlertEmail:    os.Getenv("RECONCILIATION_ALERT_EMAIL"),

		FixedFeePerDonation:  getEnvDecimal("FIXED_FEE_PER_DONATION", "3.00"),
		PlatformSharePercent: getEnvDecimal("PLATFORM_SHARE_PERCENT", "0.20"),
		ReconcileEpsilon:     getEnvDecimal("RECONCILE_EPSILON", "0.01"),
		ReconcileDelta:       getEnvDecimal("RECONCILE_DELTA", "1.00"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("⚠️ Invalid decimal for %s=%q, using default %s", key, raw, fallback)
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
