package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"qpgen-server/db"
	"qpgen-server/middleware"
	"qpgen-server/models"
	"qpgen-server/paper"
	"qpgen-server/patterns"
)

// GeneratePaper runs one generation request for the authenticated faculty.
// POST /api/v1/papers/generate
func GeneratePaper(svc *paper.Service, presets *patterns.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := presets.Apply(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		facultyID := c.GetInt64("faculty_id")
		log.Printf("Received paper generation request for course %d from faculty %d", req.CourseID, facultyID)

		result, err := svc.Generate(c.Request.Context(), facultyID, req)
		if err != nil {
			if errors.Is(err, paper.ErrEmptyBank) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Printf("Paper generation failed for course %d: %v", req.CourseID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate question paper"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Paper generated successfully", "paper": result})
	}
}

// ListPapers returns paginated generation history. Admins see every paper;
// everyone else sees only their own, with course_id as an optional extra
// filter.
// GET /api/v1/papers?course_id=&page=&page_size=
func ListPapers(svc *paper.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, _ := strconv.ParseInt(c.Query("course_id"), 10, 64)
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

		facultyID := c.GetInt64("faculty_id")
		if middleware.HasRole(c, "admin") {
			facultyID = 0
		}

		result, err := svc.History(c.Request.Context(), courseID, facultyID, page, pageSize)
		if err != nil {
			log.Printf("Error querying paper history: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve paper history"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GetPaperDetails returns one paper with its ordered question mappings.
// GET /api/v1/papers/:paper_id
func GetPaperDetails(svc *paper.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		paperID, err := strconv.ParseInt(c.Param("paper_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "paper_id must be an integer"})
			return
		}

		result, err := svc.PaperDetails(c.Request.Context(), paperID)
		if err != nil {
			if errors.Is(err, db.ErrPaperNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Question paper not found"})
				return
			}
			log.Printf("Error fetching paper %d: %v", paperID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve paper"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ListPatterns returns the configured exam-pattern presets.
// GET /api/v1/patterns
func ListPatterns(presets *patterns.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, presets.List())
	}
}
