package monitoring

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/redis/go-redis/v9"
)

type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

type HealthCheck struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Duration    time.Duration `json:"duration"`
	LastChecked time.Time     `json:"last_checked"`
	Error       string        `json:"error,omitempty"`
}

type SystemHealth struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
	Uptime    time.Duration          `json:"uptime"`
}

// HealthService runs the registered checks on demand; the ops endpoint in
// main.go serves the result.
type HealthService struct {
	checks    map[string]func(context.Context) error
	mu        sync.RWMutex
	startTime time.Time
}

func CreateHealthService() *HealthService {
	return &HealthService{
		checks:    make(map[string]func(context.Context) error),
		startTime: time.Now(),
	}
}

func (hs *HealthService) AddCheck(name string, check func(context.Context) error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.checks[name] = check
}

func (hs *HealthService) GetHealth(ctx context.Context) SystemHealth {
	hs.mu.RLock()
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}
	hs.mu.RUnlock()

	overall := Healthy
	checks := make(map[string]HealthCheck, len(names))
	for _, name := range names {
		check := hs.runCheck(ctx, name)
		if check.Status == Unhealthy {
			overall = Unhealthy
		}
		checks[name] = check
	}

	return SystemHealth{
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    checks,
		Uptime:    time.Since(hs.startTime),
	}
}

func (hs *HealthService) IsHealthy(ctx context.Context) bool {
	return hs.GetHealth(ctx).Status == Healthy
}

func (hs *HealthService) runCheck(ctx context.Context, name string) HealthCheck {
	hs.mu.RLock()
	check := hs.checks[name]
	hs.mu.RUnlock()

	start := time.Now()
	err := check(ctx)
	result := HealthCheck{
		Name:        name,
		Status:      Healthy,
		Duration:    time.Since(start),
		LastChecked: time.Now(),
	}
	if err != nil {
		result.Status = Unhealthy
		result.Error = err.Error()
	}
	return result
}

// DatabaseCheck pings the underlying connection pool.
func DatabaseCheck(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// RedisCheck pings the shared key-value store backing locks and idempotency.
func RedisCheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
