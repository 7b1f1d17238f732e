// Package metrics exposes the Prometheus collectors of the goal service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	progressLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goal_progress_logged_total",
		Help: "Daily progress entries recorded",
	})

	goalsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goals_completed_total",
			Help: "Goals that reached their target",
		},
		[]string{"perfect"},
	)

	achievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_unlocked_total",
			Help: "Achievement badges unlocked",
		},
		[]string{"type"},
	)
)

// ProgressLogged counts one recorded daily entry.
func ProgressLogged() {
	progressLogged.Inc()
}

// GoalCompleted counts one goal completion.
func GoalCompleted(perfect bool) {
	goalsCompleted.WithLabelValues(strconv.FormatBool(perfect)).Inc()
}

// AchievementUnlocked counts one badge unlock of the given type.
func AchievementUnlocked(kind string) {
	achievementsUnlocked.WithLabelValues(kind).Inc()
}

// Middleware records request durations labelled by the matched chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
