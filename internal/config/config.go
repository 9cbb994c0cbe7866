package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Vote policies for proof decision derivation
const (
	VotePolicyFirst  = "first"
	VotePolicyQuorum = "quorum"
)

// Policies applied to stale pending proofs by the sweeper
const (
	StalePolicyFlag   = "flag"
	StalePolicyReject = "reject"
)

type Config struct {
	Port        string
	AppEnv      string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	JWTExpire   string
	FrontendURL string

	FirebaseServiceAccountPath string
	GoogleClientID             string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	// Validation pipeline knobs
	ValidatorsPerProof int           // reviewers assigned to a new proof
	ReviewQuota        int           // reviews required before own feedback unlocks
	VotePolicy         string        // "first" or "quorum"
	PendingProofTTL    time.Duration // pending older than this is stale
	SweepInterval      time.Duration
	StalePolicy        string // "flag" or "reject"
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "ecoloop"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		JWTExpire:   getEnv("JWT_EXPIRE_HOURS", "24"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		GoogleClientID:             getEnv("GOOGLE_CLIENT_ID", ""),

		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "ecoloop"),

		ValidatorsPerProof: getEnvInt("VALIDATORS_PER_PROOF", 3),
		ReviewQuota:        getEnvInt("REVIEW_QUOTA", 3),
		VotePolicy:         getEnv("VOTE_POLICY", VotePolicyFirst),
		PendingProofTTL:    getEnvDuration("PENDING_PROOF_TTL", 72*time.Hour),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 1*time.Hour),
		StalePolicy:        getEnv("STALE_POLICY", StalePolicyFlag),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
