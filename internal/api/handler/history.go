package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/session"
	"github.com/timmy/tabextract/internal/tabular"
)

// HistoryHandler serves the session's job history and result exports.
type HistoryHandler struct {
	session *session.Session
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(sess *session.Session) *HistoryHandler {
	return &HistoryHandler{session: sess}
}

// HistoryItem is the list view of one history entry.
type HistoryItem struct {
	domain.HistoryEntry
	SourceLabel string `json:"source_label"`
	HasResult   bool   `json:"has_result"`
	Rows        int    `json:"rows"`
}

func newHistoryItem(e domain.HistoryEntry) HistoryItem {
	item := HistoryItem{HistoryEntry: e, SourceLabel: e.Source.Label()}
	if e.Result != nil {
		item.HasResult = true
		item.Rows = len(e.Result.Rows)
	}
	return item
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(c *gin.Context) {
	entries := h.session.History().List()
	items := make([]HistoryItem, len(entries))
	for i, e := range entries {
		items[i] = newHistoryItem(e)
	}
	c.JSON(http.StatusOK, gin.H{"entries": items, "total": len(items)})
}

// Get handles GET /api/v1/history/:id and re-displays the entry's result.
func (h *HistoryHandler) Get(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	resp := gin.H{"entry": newHistoryItem(entry)}
	if entry.Result != nil {
		resp["table"] = tabular.ToTable(entry.Result)
		resp["metadata"] = entry.Result.Metadata
	}
	c.JSON(http.StatusOK, resp)
}

// Export handles GET /api/v1/history/:id/export?format=csv|json|xlsx.
func (h *HistoryHandler) Export(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	if entry.Result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry has no result to export"})
		return
	}
	writeExport(c, entry.Result, c.Query("format"))
}

// Latest handles GET /api/v1/results/latest.
func (h *HistoryHandler) Latest(c *gin.Context) {
	result := h.session.LastResult()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"table":    tabular.ToTable(result),
		"metadata": result.Metadata,
	})
}

// ExportLatest handles GET /api/v1/results/latest/export?format=csv|json|xlsx.
func (h *HistoryHandler) ExportLatest(c *gin.Context) {
	result := h.session.LastResult()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results yet"})
		return
	}
	writeExport(c, result, c.Query("format"))
}

func (h *HistoryHandler) lookup(c *gin.Context) (domain.HistoryEntry, bool) {
	entry, err := h.session.History().Get(c.Param("id"))
	if errors.Is(err, domain.ErrHistoryEntryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "History entry not found"})
		return entry, false
	}
	return entry, true
}
