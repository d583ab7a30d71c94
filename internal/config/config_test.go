package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DANMU_ROOM_ID", "DANMU_WS_URL", "DANMU_HTTP_ADDR", "DANMU_HEARTBEAT", "DANMU_BUFFER_MAX"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.RoomID != DefaultRoomID || cfg.WSURL != DefaultWSURL || cfg.HTTPAddr != ":18080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Heartbeat != 10*time.Second || cfg.MaxBuffered != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DANMU_ROOM_ID", "21452505")
	t.Setenv("DANMU_HEARTBEAT", "3s")
	t.Setenv("DANMU_BUFFER_MAX", "500")
	t.Setenv("DANMU_REDIS_STREAM", "live:events")
	cfg := Load()
	if cfg.RoomID != 21452505 || cfg.Heartbeat != 3*time.Second || cfg.MaxBuffered != 500 || cfg.RedisStream != "live:events" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_InvalidFallsBack(t *testing.T) {
	t.Setenv("DANMU_ROOM_ID", "abc")
	t.Setenv("DANMU_HEARTBEAT", "-1s")
	t.Setenv("DANMU_BUFFER_MAX", "-5")
	cfg := Load()
	if cfg.RoomID != DefaultRoomID || cfg.Heartbeat != 10*time.Second || cfg.MaxBuffered != 0 {
		t.Fatalf("invalid values should fall back: %+v", cfg)
	}
}
