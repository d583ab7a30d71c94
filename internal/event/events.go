package event

import "time"

// EventType 直播间事件类型，取自消息体的 cmd 字段
type EventType string

const (
	EventDanmu EventType = "DANMU_MSG"
	EventGift  EventType = "SEND_GIFT"
	EventCombo EventType = "COMBO_SEND"
	EventGuard EventType = "GUARD_BUY"
)

type Event interface {
	Type() EventType
	Time() time.Time
}

// DanmuEvent 弹幕
type DanmuEvent struct {
	When    time.Time
	UID     int64
	User    string
	Content string
}

func (e *DanmuEvent) Type() EventType { return EventDanmu }
func (e *DanmuEvent) Time() time.Time { return e.When }

// GiftEvent 礼物
type GiftEvent struct {
	When     time.Time
	UID      int64  `json:"uid"`
	User     string `json:"uname"`
	GiftName string `json:"giftName"`
	Num      int64  `json:"num"`
	Price    int64  `json:"price"`
	CoinType string `json:"coin_type"`
}

func (e *GiftEvent) Type() EventType { return EventGift }
func (e *GiftEvent) Time() time.Time { return e.When }

// Total 总价 = 单价 * 数量
func (e *GiftEvent) Total() int64 { return e.Price * e.Num }

// ComboEvent 连击，礼物本身已由 GiftEvent 计入
type ComboEvent struct {
	When     time.Time
	UID      int64  `json:"uid"`
	User     string `json:"uname"`
	ComboNum int64  `json:"combo_num"`
	GiftName string `json:"gift_name"`
}

func (e *ComboEvent) Type() EventType { return EventCombo }
func (e *ComboEvent) Time() time.Time { return e.When }

// GuardEvent 上舰
type GuardEvent struct {
	When       time.Time
	UID        int64  `json:"uid"`
	User       string `json:"username"`
	GuardLevel int    `json:"guard_level"`
	Num        int64  `json:"num"`
	Price      int64  `json:"price"`
	GiftName   string `json:"gift_name"`
}

func (e *GuardEvent) Type() EventType { return EventGuard }
func (e *GuardEvent) Time() time.Time { return e.When }

// RawEvent 其它未单独建模的消息，保留原文
type RawEvent struct {
	When time.Time
	Cmd  string
	Body string
}

func (e *RawEvent) Type() EventType { return EventType(e.Cmd) }
func (e *RawEvent) Time() time.Time { return e.When }
