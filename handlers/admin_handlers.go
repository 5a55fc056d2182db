package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"qpgen-server/db"
)

// AdminGenerationEvents lists recent pipeline events (fallback switches,
// rejected AI output, relaxed exclusions), newest first.
// GET /admin/generation_events?limit=
func AdminGenerationEvents(events *db.EventLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

		list, err := events.ListEvents(c.Request.Context(), limit)
		if err != nil {
			log.Printf("Error querying generation events: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve generation events"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// AdminQuestionUsage lists per-question usage metadata for a course, most
// used first.
// GET /admin/question_usage?course_id=
func AdminQuestionUsage(bank *db.BankStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, err := strconv.ParseInt(c.Query("course_id"), 10, 64)
		if err != nil || courseID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "course_id query parameter is required"})
			return
		}

		stats, err := bank.UsageStats(c.Request.Context(), courseID)
		if err != nil {
			log.Printf("Error querying usage stats for course %d: %v", courseID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve question usage stats"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
