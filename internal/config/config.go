package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds store-level settings loaded from the environment.
type Config struct {
	HTTPAddr string

	// MaxDiscount is the fraction of an order the banked currency credit may
	// cover, e.g. 0.3.
	MaxDiscount decimal.Decimal
	// RentPercent derives a rent line's daily payment from the item price.
	RentPercent decimal.Decimal
	// AdultCategories are category names hidden from non-adult viewers.
	AdultCategories []string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string
	// SiteURL is used to build links inside transactional emails.
	SiteURL string
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getenv("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASSWORD"),
		MailFrom: getenv("MAIL_FROM", "noreply@hobbyden.local"),
		SiteURL:  getenv("SITE_URL", "http://localhost:8080"),
	}

	var err error
	cfg.MaxDiscount, err = decimalEnv("MAX_DISCOUNT", "0.3")
	if err != nil {
		return Config{}, err
	}
	cfg.RentPercent, err = decimalEnv("RENT_PERCENT_OF_PRICE", "0.05")
	if err != nil {
		return Config{}, err
	}

	for _, name := range strings.Split(getenv("ADULT_CATEGORIES", "18+"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.AdultCategories = append(cfg.AdultCategories, name)
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getenv(key, fallback))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
