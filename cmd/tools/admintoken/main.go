package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/BrunoPirard/gtro-pricing/internal/auth"
)

// Mints an admin bearer token for the catalog configuration endpoints.
func main() {
	subject := flag.String("subject", "ops", "token subject")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_JWT_SECRET is not set")
	}

	issuer := auth.TokenIssuer{
		Secret:   []byte(secret),
		Issuer:   envOrDefault("ADMIN_JWT_ISSUER", "gtro-pricing"),
		Audience: envOrDefault("ADMIN_JWT_AUDIENCE", "gtro-admin"),
		TTL:      *ttl,
	}
	token, err := issuer.Issue(time.Now(), *subject)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
