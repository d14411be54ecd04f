package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dryack/dndice/core/dsl"
	"github.com/dryack/dndice/core/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type createSessionRequest struct {
	Name       string `json:"name"`
	Expression string `json:"expression" binding:"required"`
}

func sessionJSON(sess *session.Session) gin.H {
	return gin.H{
		"id":         sess.ID,
		"name":       sess.Name(),
		"expression": sess.Expression(),
		"display":    sess.String(),
		"rolls":      sess.Rolls(),
		"created_at": sess.CreatedAt,
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sess, err := s.sessions.CreateSession(req.Name, req.Expression)
	if err != nil {
		parseErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionJSON(sess))
}

// lookupSession writes a 404 and returns nil when the id is unknown.
func (s *Server) lookupSession(c *gin.Context) *session.Session {
	sess, err := s.sessions.GetSession(c.Param("id"))
	if errors.Is(err, session.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	return sess
}

func (s *Server) handleGetSession(c *gin.Context) {
	if sess := s.lookupSession(c); sess != nil {
		c.JSON(http.StatusOK, sessionJSON(sess))
	}
}

func (s *Server) handleSessionRoll(c *gin.Context) {
	sess := s.lookupSession(c)
	if sess == nil {
		return
	}

	value, rollLog := sess.Roll()
	token, err := s.receipts.Sign(sess.Expression(), value, rollLog)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("error signing roll receipt")
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      sess.ID,
		"display": sess.String(),
		"result":  value,
		"log":     rollLog,
		"receipt": token,
	})
}

func (s *Server) handleSessionLog(c *gin.Context) {
	sess := s.lookupSession(c)
	if sess == nil {
		return
	}

	back, err := strconv.Atoi(c.Param("back"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid number '" + c.Param("back") + "'"})
		return
	}

	rollLog, err := sess.Log(back)
	if errors.Is(err, dsl.ErrNoSuchRoll) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   sess.ID,
		"back": back,
		"log":  rollLog,
	})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	err := s.sessions.DeleteSession(c.Param("id"))
	if errors.Is(err, session.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
