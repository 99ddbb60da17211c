package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	TurnTimeout         time.Duration // deadline for one hint turn
	PostRoundChatWindow time.Duration // free chat window after a round ends
	HintCacheCapacity   int
	MaxMessageLength    int // runes
}

func Load() Config {
	return Config{
		TurnTimeout:         time.Duration(intEnv("TURN_TIMEOUT_SECONDS", 60)) * time.Second,
		PostRoundChatWindow: time.Duration(intEnv("POST_ROUND_CHAT_SECONDS", 7)) * time.Second,
		HintCacheCapacity:   intEnv("HINT_CACHE_CAPACITY", 1000),
		MaxMessageLength:    intEnv("MAX_MESSAGE_LENGTH", 200),
	}
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
