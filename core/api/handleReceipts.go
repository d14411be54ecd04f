package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleVerifyReceipt(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing receipt token"})
		return
	}

	claims, err := s.receipts.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": err.Error()})
		return
	}

	resp := gin.H{
		"valid":      true,
		"id":         claims.ID,
		"expression": claims.Expression,
		"value":      claims.Value,
		"log":        claims.Log,
	}
	if claims.IssuedAt != nil {
		resp["issued_at"] = claims.IssuedAt.Time
	}
	c.JSON(http.StatusOK, resp)
}
