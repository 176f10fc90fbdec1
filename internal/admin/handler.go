// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/useSafe/File-Allocation-System-2.0/internal/auth"
	"github.com/useSafe/File-Allocation-System-2.0/internal/browser"
	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
)

// Sessions exposes another user's refresh-token sessions to admins.
type Sessions interface {
	GetActiveSessions(ctx context.Context, userID string) ([]auth.SessionInfo, error)
	RevokeUserSessions(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	dbStats     func() sql.DBStats
	redisStats  func() *redis.PoolStats
	redisPing   func(ctx context.Context) error
	dbPing      func(ctx context.Context) error
	liveClients func() int
	snapshot    record.Snapshot
	sessions    Sessions
}

type HandlerConfig struct {
	DBStats     func() sql.DBStats
	RedisStats  func() *redis.PoolStats
	RedisPing   func(ctx context.Context) error
	DBPing      func(ctx context.Context) error
	LiveClients func() int
	Snapshot    record.Snapshot
	Sessions    Sessions
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:     cfg.DBStats,
		redisStats:  cfg.RedisStats,
		redisPing:   cfg.RedisPing,
		dbPing:      cfg.DBPing,
		liveClients: cfg.LiveClients,
		snapshot:    cfg.Snapshot,
		sessions:    cfg.Sessions,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Get("/stats/inventory", h.GetInventoryStats)
		r.Get("/sessions/{userID}", h.ListSessions)
		r.Delete("/sessions/{userID}", h.RevokeSessions)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     memStats.Alloc,
			MemSys:       memStats.Sys,
			NumGC:        memStats.NumGC,
		},
		Inventory: h.getInventory(),
	}
	if h.liveClients != nil {
		response.LiveClients = h.liveClients()
	}

	core.OK(w, response)
}

func (h *Handler) GetInventoryStats(w http.ResponseWriter, r *http.Request) {
	inv := h.getInventory()
	if inv == nil {
		core.JSONError(w, core.NewAppError(
			nil,
			"inventory is still loading",
			http.StatusServiceUnavailable,
			"LOADING",
		))
		return
	}
	core.OK(w, inv)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !core.ValidID(userID) {
		core.NotFound(w, "user")
		return
	}
	sessions, err := h.sessions.GetActiveSessions(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, auth.SessionsResponse{Sessions: sessions})
}

// RevokeSessions signs the user out everywhere.
func (h *Handler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !core.ValidID(userID) {
		core.NotFound(w, "user")
		return
	}
	n, err := h.sessions.RevokeUserSessions(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, map[string]int64{"revoked": n})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}

	core.OK(w, response)
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

func (h *Handler) getInventory() *InventoryStats {
	if h.snapshot == nil || h.snapshot.Loading() {
		return nil
	}

	hier := h.snapshot.Hierarchy()
	inv := &InventoryStats{
		Shelves:  len(hier.Shelves),
		Cabinets: len(hier.Cabinets),
		Folders:  len(hier.Folders),
	}
	for _, c := range browser.CountByFolder(h.snapshot.Records()) {
		inv.Archived += c.Archived
		inv.Borrowed += c.Borrowed
	}
	inv.Records = inv.Archived + inv.Borrowed
	return inv
}

type SystemStatsResponse struct {
	Database    DatabaseStatus  `json:"database"`
	Redis       RedisStatus     `json:"redis"`
	Runtime     RuntimeStats    `json:"runtime"`
	Inventory   *InventoryStats `json:"inventory,omitempty"`
	LiveClients int             `json:"live_clients"`
}

type InventoryStats struct {
	Shelves  int `json:"shelves"`
	Cabinets int `json:"cabinets"`
	Folders  int `json:"folders"`
	Records  int `json:"records"`
	Archived int `json:"archived"`
	Borrowed int `json:"borrowed"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
