package observe

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc 返回当前连接是否可用以及状态描述
type HealthFunc func() (ok bool, status string)

// Mount 在路由上挂载 /healthz 与 /metrics
func Mount(r chi.Router, health HealthFunc) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if ok, status := health(); !ok {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintln(w, status)
				return
			}
		}
		_, _ = fmt.Fprintln(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())
}
