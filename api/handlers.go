package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"paperbot/config"
	"paperbot/store"
	"paperbot/types"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleRecentPapers returns papers published in the last N days (default 7)
// GET /papers/recent?days=7&limit=50
func (s *Server) handleRecentPapers(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	papers, err := s.store.RecentPapers(c.Request.Context(), since, limit)
	if err != nil {
		log.Printf("Failed to list recent papers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list papers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(papers), "papers": papers})
}

// handleTrendingPapers returns recent papers ranked by social attention
// GET /papers/trending?days=3&limit=20
func (s *Server) handleTrendingPapers(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "3"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	papers, err := s.store.RecentPapers(c.Request.Context(), since, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list papers"})
		return
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].HotScore > papers[j].HotScore
	})
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"count": len(papers), "papers": papers})
}

func (s *Server) handleGetPaper(c *gin.Context) {
	paper, err := s.store.GetPaper(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load paper"})
		return
	}
	c.JSON(http.StatusOK, paper)
}

// handleListRecommendations returns a user's recommendations, newest first
// GET /users/:id/recommendations?limit=20
func (s *Server) handleListRecommendations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	recs, err := s.store.UserRecommendations(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recommendations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(recs), "recommendations": recs})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	err := s.store.MarkRead(c.Request.Context(), c.Param("id"), c.Param("paperID"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recommendation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

type bookmarkRequest struct {
	Bookmarked *bool `json:"bookmarked"`
}

func (s *Server) handleBookmark(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Bookmarked == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must contain a boolean bookmarked field"})
		return
	}

	err := s.store.MarkBookmarked(c.Request.Context(), c.Param("id"), c.Param("paperID"), *req.Bookmarked)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recommendation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "bookmarked": *req.Bookmarked})
}

// handleGetTopics returns the research topics the user follows
func (s *Server) handleGetTopics(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "topics": user.Topics})
}

type topicsRequest struct {
	Topics []string `json:"topics"`
}

// handlePutTopics replaces the user's followed topic list
func (s *Server) handlePutTopics(c *gin.Context) {
	var req topicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.store.GetUser(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	user.Topics = req.Topics
	if err := s.store.SaveUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "topics": user.Topics})
}

// handleGetPreferences returns the user's preferences, creating the defaults
// on first access
func (s *Server) handleGetPreferences(c *gin.Context) {
	prefs, err := s.store.GetPreferences(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handlePutPreferences(c *gin.Context) {
	var prefs types.UserPreference
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prefs.UserID = c.Param("id")

	if prefs.MaxDailyRecommendations <= 0 {
		prefs.MaxDailyRecommendations = config.DefaultMaxDailyRecommendations
	}
	if prefs.MinNoveltyScore < 0 || prefs.MinNoveltyScore > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_novelty_score must be within 0-10"})
		return
	}
	if prefs.MinHotScore < 0 || prefs.MinHotScore > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_hot_score must be within 0-100"})
		return
	}

	if err := s.store.SavePreferences(c.Request.Context(), &prefs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preferences"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// handleClusterHistory returns cluster snapshots from the last 30 days
func (s *Server) handleClusterHistory(c *gin.Context) {
	since := time.Now().UTC().AddDate(0, 0, -30)
	snapshots, err := s.store.RecentClusterSnapshots(c.Request.Context(), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cluster history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(snapshots), "clusters": snapshots})
}

// Manual pipeline triggers run in the background; the handler acknowledges
// immediately
func (s *Server) handleRunDaily(c *gin.Context) {
	go func() {
		if err := s.pipeline.RunDaily(context.Background()); err != nil {
			log.Printf("Manual daily run failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "daily run started"})
}

func (s *Server) handleRunTrending(c *gin.Context) {
	go func() {
		if err := s.pipeline.RunTrending(context.Background()); err != nil {
			log.Printf("Manual trending run failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "trending run started"})
}
