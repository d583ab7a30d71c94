package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoCmd = errors.New("event: message has no cmd")

type envelope struct {
	Cmd  string          `json:"cmd"`
	Info json.RawMessage `json:"info"`
	Data json.RawMessage `json:"data"`
}

// noise 只用于刷新页面状态的消息
var noise = map[string]struct{}{
	"INTERACT_WORD":                 {},
	"WATCHED_CHANGE":                {},
	"ONLINE_RANK_COUNT":             {},
	"STOP_LIVE_ROOM_LIST":           {},
	"ENTRY_EFFECT":                  {},
	"HOT_RANK_CHANGED_V2":           {},
	"ONLINE_RANK_V2":                {},
	"ONLINE_RANK_TOP3":              {},
	"NOTICE_MSG":                    {},
	"PREPARING":                     {},
	"SUPER_CHAT_MESSAGE":            {},
	"WIDGET_BANNER":                 {},
	"HOT_RANK_CHANGED":              {},
	"SUPER_CHAT_MESSAGE_JPN":        {},
	"USER_TOAST_MSG":                {},
	"ROOM_REAL_TIME_MESSAGE_UPDATE": {},
}

// IsNoise 判断 cmd 是否为可忽略的消息
func IsNoise(cmd string) bool {
	_, ok := noise[cmd]
	return ok
}

// normalizeCmd 部分弹幕的 cmd 带有后缀，如 DANMU_MSG:4:0:2:2:2:0
func normalizeCmd(cmd string) string {
	head, _, _ := strings.Cut(cmd, ":")
	if head == string(EventDanmu) {
		return head
	}
	return cmd
}

// Parse 解析一条业务消息
func Parse(body string, when time.Time) (Event, error) {
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("event: decode message: %w", err)
	}
	if env.Cmd == "" {
		return nil, ErrNoCmd
	}

	switch EventType(normalizeCmd(env.Cmd)) {
	case EventDanmu:
		return parseDanmu(env.Info, when)
	case EventGift:
		return decodeData(env, &GiftEvent{When: when})
	case EventCombo:
		return decodeData(env, &ComboEvent{When: when})
	case EventGuard:
		return decodeData(env, &GuardEvent{When: when})
	default:
		return &RawEvent{When: when, Cmd: env.Cmd, Body: body}, nil
	}
}

func decodeData(env envelope, e Event) (Event, error) {
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("event: %s has no data", env.Cmd)
	}
	if err := json.Unmarshal(env.Data, e); err != nil {
		return nil, fmt.Errorf("event: decode %s data: %w", env.Cmd, err)
	}
	return e, nil
}

// parseDanmu info[1] 为弹幕内容，info[2] 为 [uid, uname, ...]
func parseDanmu(info json.RawMessage, when time.Time) (Event, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(info, &fields); err != nil {
		return nil, fmt.Errorf("event: decode DANMU_MSG info: %w", err)
	}
	if len(fields) < 3 {
		return nil, fmt.Errorf("event: DANMU_MSG info has %d fields", len(fields))
	}
	e := &DanmuEvent{When: when}
	if err := json.Unmarshal(fields[1], &e.Content); err != nil {
		return nil, fmt.Errorf("event: decode DANMU_MSG content: %w", err)
	}
	var user []json.RawMessage
	if err := json.Unmarshal(fields[2], &user); err != nil {
		return nil, fmt.Errorf("event: decode DANMU_MSG user: %w", err)
	}
	if len(user) < 2 {
		return nil, fmt.Errorf("event: DANMU_MSG user has %d fields", len(user))
	}
	if err := json.Unmarshal(user[0], &e.UID); err != nil {
		return nil, fmt.Errorf("event: decode DANMU_MSG uid: %w", err)
	}
	if err := json.Unmarshal(user[1], &e.User); err != nil {
		return nil, fmt.Errorf("event: decode DANMU_MSG uname: %w", err)
	}
	return e, nil
}

// Record 对外接口返回的精简记录
type Record struct {
	Cmd      string `json:"cmd"`
	User     string `json:"user"`
	Content  string `json:"content,omitempty"`
	Price    int64  `json:"price,omitempty"`
	CoinType string `json:"coin_type,omitempty"`
}

// Summarize 只有弹幕与礼物会生成记录
func Summarize(e Event) (Record, bool) {
	switch ev := e.(type) {
	case *DanmuEvent:
		return Record{Cmd: string(EventDanmu), User: ev.User, Content: ev.Content}, true
	case *GiftEvent:
		return Record{Cmd: string(EventGift), User: ev.User, Price: ev.Total(), CoinType: ev.CoinType}, true
	default:
		return Record{}, false
	}
}

// Format 控制台输出格式，噪声消息返回空串
func Format(e Event) string {
	switch ev := e.(type) {
	case *DanmuEvent:
		return fmt.Sprintf("【弹幕】%s(%d): %s", ev.User, ev.UID, ev.Content)
	case *GiftEvent:
		return fmt.Sprintf("【礼物】%s(%d): %s(%s)x%d=%d", ev.User, ev.UID, ev.GiftName, ev.CoinType, ev.Num, ev.Total())
	case *GuardEvent:
		return fmt.Sprintf("【上舰】%s(%d): %s x%d", ev.User, ev.UID, ev.GiftName, ev.Num)
	case *ComboEvent:
		return ""
	case *RawEvent:
		if IsNoise(ev.Cmd) {
			return ""
		}
		return ev.Body
	default:
		return ""
	}
}
