package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BadgerGCInterval  time.Duration `env:"BADGER_GC_INTERVAL,default=5m"`
	AuthTokenSecret   string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	TokenIssuerName   string        `env:"TOKEN_ISSUER_NAME,default=arayanibul"`
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT,default=5s"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	// Comma separated dictionary for payload moderation. Empty disables it.
	ForbiddenWords  string `env:"FORBIDDEN_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// ForbiddenWordList splits the configured dictionary, dropping blanks.
func (c Config) ForbiddenWordList() []string {
	parts := strings.Split(c.ForbiddenWords, ",")
	trimmed := lo.Map(parts, func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Filter(trimmed, func(s string, _ int) bool { return s != "" })
}

// CharacterRune enforces that the replacement is exactly one character.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
