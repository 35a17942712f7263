package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

func getInt32Env(key string, fallback int32) int32 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := toInt32(value); err == nil {
			return i
		}
		log.Printf("Invalid int32 for %s, using fallback", key)
	}
	return fallback
}

func toInt32(s string) (int32, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	return int32(i), err
}

// getCouponEnv reads a comma separated CODE=PERCENT list, e.g. "#CLIENT12=12,VIP=20".
// Codes are stored normalised (trimmed, upper case).
func getCouponEnv(key string, fallback map[string]int) map[string]int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	codes, err := ParseCouponCodes(value)
	if err != nil {
		log.Printf("Invalid coupon table for %s (%v), using fallback", key, err)
		return fallback
	}
	return codes
}

// ParseCouponCodes parses the COUPON_CODES format.
func ParseCouponCodes(value string) (map[string]int, error) {
	codes := make(map[string]int)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, pct, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("missing '=' in %q", pair)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return nil, fmt.Errorf("empty code in %q", pair)
		}
		percent, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil {
			return nil, fmt.Errorf("invalid percent in %q: %w", pair, err)
		}
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("percent out of range in %q", pair)
		}
		codes[code] = percent
	}
	return codes, nil
}

// getCategoryNamesEnv reads "slug=Label" pairs, e.g. "argila=Argila Pura,lume=Lume".
// Malformed pairs are skipped.
func getCategoryNamesEnv(key string) map[string]string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	names := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		slug, label, ok := strings.Cut(pair, "=")
		slug, label = strings.TrimSpace(slug), strings.TrimSpace(label)
		if !ok || slug == "" || label == "" {
			log.Printf("Ignoring category name %q in %s", pair, key)
			continue
		}
		names[slug] = label
	}
	return names
}
