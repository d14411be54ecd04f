package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dryack/dndice/core/dsl"
	"github.com/dryack/dndice/core/statistics"
	"github.com/dryack/dndice/core/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type rollBreakdown struct {
	Faces int   `json:"faces"`
	Rolls []int `json:"rolls"`
}

func (s *Server) handleDiceRoll(c *gin.Context) {
	start := time.Now()

	encodedExpression := c.Query("expr")
	if encodedExpression == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing encoded dice expression"})
		return
	}

	expression, err := utils.DecodeExpression(encodedExpression)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expr, err := dsl.Parse(expression)
	if err != nil {
		parseErrorResponse(c, err)
		return
	}

	canonical := dsl.Render(expr)
	roll := dsl.Roll(expr, s.src)
	stats, source := s.statistics(c.Request.Context(), canonical, expr)

	token, err := s.receipts.Sign(canonical, roll.Value, roll.Log())
	if err != nil {
		log.Error().Err(err).Msg("error signing roll receipt")
	}

	breakdown := make([]rollBreakdown, 0, len(roll.Logs()))
	for _, l := range roll.Logs() {
		breakdown = append(breakdown, rollBreakdown{Faces: l.Faces(), Rolls: l.Rolls()})
	}

	c.JSON(http.StatusOK, gin.H{
		"expression":       canonical,
		"original":         expression,
		"result":           roll.Value,
		"log":              roll.Log(),
		"breakdown":        breakdown,
		"statistics":       stats,
		"source":           source,
		"receipt":          token,
		"request_duration": utils.FormatDuration(time.Since(start)),
	})
}

// statistics looks up the distribution of expr under its canonical form key:
// cache first, then database, then a fresh simulation whose complete result is
// written back to the cache, or straight to the database when there is no cache.
func (s *Server) statistics(ctx context.Context, key string, expr dsl.Expr) (*statistics.Result, dsl.ResultSource) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil && cached.Statistics != nil {
			return cached.Statistics, dsl.SourceCache
		}
		if err != nil && !errors.Is(err, dsl.ErrNotFound) {
			log.Warn().Err(err).Str("expression", key).Msg("cache error")
		}
	}

	if s.db != nil {
		stored, err := s.db.Get(ctx, key)
		if err == nil && stored.Statistics != nil {
			if s.cache != nil {
				if err := s.cache.Set(ctx, key, stored); err != nil {
					log.Warn().Err(err).Str("expression", key).Msg("error setting cache")
				}
			}
			return stored.Statistics, dsl.SourceDatabase
		}
		if err != nil && !errors.Is(err, dsl.ErrNotFound) {
			log.Warn().Err(err).Str("expression", key).Msg("database error")
		}
	}

	simCtx, cancel := context.WithTimeout(ctx, s.simTimeout)
	defer cancel()
	result := dsl.Simulate(simCtx, expr, s.src, s.iterations)

	// A simulation cut short by the timeout is served but not stored.
	if result == nil || result.Samples < s.iterations {
		return result, dsl.SourceFreshCalculation
	}
	entry := &dsl.CachedResult{Expression: key, Statistics: result}
	switch {
	case s.cache != nil:
		if err := s.cache.Set(ctx, key, entry); err != nil {
			log.Warn().Err(err).Str("expression", key).Msg("error setting cache")
		}
	case s.db != nil:
		if err := s.db.Set(ctx, key, entry); err != nil {
			log.Warn().Err(err).Str("expression", key).Msg("error storing statistics")
		}
	}
	return result, dsl.SourceFreshCalculation
}

func parseErrorResponse(c *gin.Context, err error) {
	var perr *dsl.ParseError
	if errors.As(err, &perr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": perr.Error(),
			"kind":  perr.Code(),
			"input": perr.Input,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
