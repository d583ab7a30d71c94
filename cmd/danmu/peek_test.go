package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/hongjun500/bili-danmu/internal/danmu"
)

func TestPrintMessages(t *testing.T) {
	now := time.Now()
	msgs := []danmu.Message{
		{Body: `{"cmd":"DANMU_MSG","info":[[0],"你好",[7,"dave"]]}`, ReceivedAt: now},
		{Body: `{"cmd":"ONLINE_RANK_COUNT","data":{"count":3}}`, ReceivedAt: now},
		{Body: `broken`, ReceivedAt: now},
		{Body: `{"cmd":"SEND_GIFT","data":{"uid":8,"uname":"eve","giftName":"辣条","num":10,"price":100,"coin_type":"silver"}}`, ReceivedAt: now},
	}
	var buf bytes.Buffer
	printMessages(&buf, msgs)

	want := "【弹幕】dave(7): 你好\n【礼物】eve(8): 辣条(silver)x10=1000\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
