package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultRoomID = 572418
	DefaultWSURL  = "wss://broadcastlv.chat.bilibili.com/sub"
)

type Config struct {
	RoomID        int64
	WSURL         string
	HTTPAddr      string
	Heartbeat     time.Duration
	WriteTimeout  time.Duration
	MaxBuffered   int
	RedisAddr     string
	RedisDB       int
	RedisStream   string
	RelayInterval time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(def)))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, def.String()))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func Load() *Config {
	roomID, err := strconv.ParseInt(getEnv("DANMU_ROOM_ID", strconv.Itoa(DefaultRoomID)), 10, 64)
	if err != nil || roomID <= 0 {
		roomID = DefaultRoomID
	}
	return &Config{
		RoomID:        roomID,
		WSURL:         getEnv("DANMU_WS_URL", DefaultWSURL),
		HTTPAddr:      getEnv("DANMU_HTTP_ADDR", ":18080"),
		Heartbeat:     getDuration("DANMU_HEARTBEAT", 10*time.Second),
		WriteTimeout:  getDuration("DANMU_WRITE_TIMEOUT", 5*time.Second),
		MaxBuffered:   getInt("DANMU_BUFFER_MAX", 0),
		RedisAddr:     getEnv("DANMU_REDIS_ADDR", "localhost:6379"),
		RedisDB:       getInt("DANMU_REDIS_DB", 0),
		RedisStream:   getEnv("DANMU_REDIS_STREAM", "danmu:events"),
		RelayInterval: getDuration("DANMU_RELAY_INTERVAL", time.Second),
	}
}
