package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/titaniumapp/titanium/internal/database"
	"github.com/titaniumapp/titanium/internal/reliability"
)

// SystemHandlers serves health and system monitoring endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	ledgerDB  *database.DB
	cacheDB   *database.DB
	backups   *reliability.BackupService
	startedAt time.Time
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, ledgerDB, cacheDB *database.DB, backups *reliability.BackupService) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		ledgerDB:  ledgerDB,
		cacheDB:   cacheDB,
		backups:   backups,
		startedAt: time.Now(),
	}
}

// HandleHealth reports liveness plus database reachability
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	databases := map[string]string{}

	for name, db := range map[string]*database.DB{"ledger": h.ledgerDB, "client_data": h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.Conn().Ping(); err != nil {
			databases[name] = "unreachable"
			status = "degraded"
			h.log.Warn().Err(err).Str("database", name).Msg("Health check ping failed")
		} else {
			databases[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status":         status,
		"databases":      databases,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleSystemStatus reports host and process resource usage
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		response["cpu_percent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		response["memory"] = map[string]interface{}{
			"total_mb":     memStat.Total / 1024 / 1024,
			"used_mb":      memStat.Used / 1024 / 1024,
			"used_percent": memStat.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	dbStats := map[string]interface{}{}
	for name, db := range map[string]*database.DB{"ledger": h.ledgerDB, "client_data": h.cacheDB} {
		if db == nil {
			continue
		}
		stats := db.Conn().Stats()
		dbStats[name] = map[string]interface{}{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		}
	}
	response["databases"] = dbStats

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTriggerBackup runs a backup cycle on demand
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "backups are not configured"})
		return
	}

	result, err := h.backups.Run(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
