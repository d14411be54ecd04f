package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dryack/dndice/core/scores"
	"github.com/gin-gonic/gin"
)

const maxScoreSets = 100

func (s *Server) handleScores(c *gin.Context) {
	method := c.Param("method")

	number := 1
	if raw := c.Query("number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxScoreSets {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid number '" + raw + "'"})
			return
		}
		number = n
	}

	sets := make([]scores.Scores, 0, number)
	for i := 0; i < number; i++ {
		set, err := scores.FromMethod(method, s.src)
		if errors.Is(err, scores.ErrUnknownMethod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		sets = append(sets, set)
	}

	c.JSON(http.StatusOK, gin.H{
		"method": method,
		"scores": sets,
	})
}
