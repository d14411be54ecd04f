package api

import (
	"net/http"

	"github.com/dryack/dndice/core/dsl"
	"github.com/dryack/dndice/core/utils"
	"github.com/gin-gonic/gin"
)

// handleEncodeExpression validates an expression and returns it encoded for
// the expr parameter of /api/roll.
func (s *Server) handleEncodeExpression(c *gin.Context) {
	expression := c.Query("expression")
	if expression == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing dice expression"})
		return
	}

	expr, err := dsl.Parse(expression)
	if err != nil {
		parseErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"original":  expression,
		"canonical": dsl.Render(expr),
		"encoded":   utils.EncodeExpression(expression),
	})
}
