package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hongjun500/bili-danmu/internal/danmu"
	"github.com/hongjun500/bili-danmu/internal/event"
	"github.com/hongjun500/bili-danmu/internal/observe"
)

// Source 接口层依赖的消息通道
type Source interface {
	DrainAll() []danmu.Message
	State() danmu.State
}

type response struct {
	Data any `json:"data"`
}

type rawMessage struct {
	Body       string    `json:"body"`
	Sequence   uint32    `json:"seq"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewRouter GET /api/danmu 取走缓冲区内的全部消息
func NewRouter(src Source, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	observe.Mount(r, func() (bool, string) {
		s := src.State()
		return s == danmu.StateStreaming, s.String()
	})

	r.Get("/api/danmu", func(w http.ResponseWriter, req *http.Request) {
		msgs := src.DrainAll()
		if req.URL.Query().Get("raw") == "1" {
			out := make([]rawMessage, 0, len(msgs))
			for _, m := range msgs {
				out = append(out, rawMessage{Body: m.Body, Sequence: m.Sequence, ReceivedAt: m.ReceivedAt})
			}
			writeJSON(w, out)
			return
		}

		records := make([]event.Record, 0, len(msgs))
		for _, m := range msgs {
			ev, err := event.Parse(m.Body, m.ReceivedAt)
			if err != nil {
				log.Sugar().Debugw("api_skip_message", "req", middleware.GetReqID(req.Context()), "err", err)
				continue
			}
			if rec, ok := event.Summarize(ev); ok {
				records = append(records, rec)
			}
		}
		writeJSON(w, records)
	})
	return r
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(response{Data: data})
}

// Serve 启动 HTTP 服务，ctx 结束时优雅关闭
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Sugar().Infow("http_listen", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
