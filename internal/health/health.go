package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status — агрегированное состояние сервиса или отдельной зависимости.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check — результат одной проверки зависимости.
type Check struct {
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Checker проверяет доступность одной зависимости.
type Checker interface {
	Check() Check
}

// CheckerFunc адаптирует функцию-пинг к интерфейсу Checker и замеряет
// длительность проверки.
type CheckerFunc func() error

func (f CheckerFunc) Check() Check {
	start := time.Now()
	err := f()

	check := Check{
		Status:     StatusHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}

// Report — ответ /healthz по всем зарегистрированным зависимостям.
type Report struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Handler делит зависимости на критичные и опциональные. Отказ критичной
// зависимости (хранилище) валит readiness; отказ опциональной (kafka)
// переводит сервис в degraded — заказы продолжают оформляться, а события
// копятся в outbox до восстановления брокера.
type Handler struct {
	mu        sync.RWMutex
	critical  map[string]Checker
	optional  map[string]Checker
	version   string
	startTime time.Time
}

// NewHandler создаёт handler без зарегистрированных проверок.
func NewHandler(version string) *Handler {
	return &Handler{
		critical:  make(map[string]Checker),
		optional:  make(map[string]Checker),
		version:   version,
		startTime: time.Now(),
	}
}

// Register регистрирует критичную зависимость: её отказ делает сервис unhealthy.
func (h *Handler) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.critical[name] = checker
}

// RegisterOptional регистрирует опциональную зависимость: её отказ лишь
// переводит сервис в degraded.
func (h *Handler) RegisterOptional(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.optional[name] = checker
}

func (h *Handler) snapshot() (critical, optional map[string]Checker) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	critical = make(map[string]Checker, len(h.critical))
	for name, checker := range h.critical {
		critical[name] = checker
	}
	optional = make(map[string]Checker, len(h.optional))
	for name, checker := range h.optional {
		optional[name] = checker
	}
	return critical, optional
}

// ServeHTTP отдаёт полный отчёт по зависимостям на /healthz.
func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	critical, optional := h.snapshot()

	checks := make(map[string]Check, len(critical)+len(optional))
	overall := StatusHealthy

	for name, checker := range critical {
		check := checker.Check()
		checks[name] = check
		if check.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		}
	}

	for name, checker := range optional {
		check := checker.Check()
		// Отказ опциональной зависимости не критичен для сервиса.
		if check.Status == StatusUnhealthy {
			check.Status = StatusDegraded
		}
		checks[name] = check
		if overall == StatusHealthy && check.Status != StatusHealthy {
			overall = StatusDegraded
		}
	}

	report := Report{
		Status:        overall,
		Timestamp:     time.Now(),
		Checks:        checks,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(report)
}

// ReadinessHandler смотрит только на критичные зависимости: сервис готов
// принимать заказы, пока живо хранилище.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	critical, _ := h.snapshot()

	for name, checker := range critical {
		if check := checker.Check(); check.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready: " + name))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LivenessHandler — liveness probe, всегда отвечает 200.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
