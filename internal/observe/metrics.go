package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danmu_frames_total",
			Help: "Total decoded frames by operation",
		},
		[]string{"operation"},
	)

	decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danmu_decode_errors_total",
			Help: "Total deliveries discarded due to decode errors by kind",
		},
		[]string{"kind"}, // framing|compression
	)

	bufferedMessages = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "danmu_buffered_messages",
		Help: "Number of messages waiting to be drained",
	})

	droppedMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "danmu_dropped_messages_total",
		Help: "Total messages dropped because the buffer was full",
	})

	drainedMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "danmu_drained_messages_total",
		Help: "Total messages handed to consumers",
	})

	heartbeatsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "danmu_heartbeats_total",
		Help: "Total heartbeats sent",
	})

	sendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danmu_send_errors_total",
			Help: "Total failed sends by operation",
		},
		[]string{"operation"},
	)

	publishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danmu_relay_published_total",
			Help: "Total events published to the relay bus by cmd",
		},
		[]string{"cmd"},
	)
)

func init() {
	prometheus.MustRegister(
		framesTotal,
		decodeErrorsTotal,
		bufferedMessages,
		droppedMessagesTotal,
		drainedMessagesTotal,
		heartbeatsTotal,
		sendErrorsTotal,
		publishedTotal,
	)
}

func IncFrame(op string)          { framesTotal.WithLabelValues(op).Inc() }
func IncDecodeError(kind string)  { decodeErrorsTotal.WithLabelValues(kind).Inc() }
func SetBuffered(n int)           { bufferedMessages.Set(float64(n)) }
func IncDropped()                 { droppedMessagesTotal.Inc() }
func AddDrained(n int)            { drainedMessagesTotal.Add(float64(n)) }
func IncHeartbeat()               { heartbeatsTotal.Inc() }
func IncSendError(op string)      { sendErrorsTotal.WithLabelValues(op).Inc() }
func IncPublished(cmd string)     { publishedTotal.WithLabelValues(cmd).Inc() }

// Buffered 当前 danmu_buffered_messages 的取值
func Buffered() float64 {
	var m dto.Metric
	if err := bufferedMessages.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
