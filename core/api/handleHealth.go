package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	healthOK          = "ok"
	healthUnavailable = "unavailable"
	healthDisabled    = "disabled"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth reports the state of the cache and database. It answers 503
// only when a configured backend cannot be reached.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 350*time.Millisecond)
	defer cancel()

	status := http.StatusOK
	check := func(name string, p pinger, configured bool) string {
		if !configured {
			return healthDisabled
		}
		if err := p.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("health check failed")
			status = http.StatusServiceUnavailable
			return healthUnavailable
		}
		return healthOK
	}

	cacheState := check("cache", s.cache, s.cache != nil)
	dbState := check("database", s.db, s.db != nil)

	c.JSON(status, gin.H{
		"cache":    cacheState,
		"database": dbState,
		"sessions": s.sessions.Len(),
	})
}
