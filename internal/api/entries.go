package api

import (
	"net/http" // HTTP status codes

	"promptionary/internal/domain"  // Category assignment
	"promptionary/internal/service" // Entry workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateEntryRequest is the body of POST /entries.
// categoryNames wins over categoryIds, with neither the entry lands in general.
type CreateEntryRequest struct {
	Content       string   `json:"content"`
	Type          string   `json:"type"`
	CategoryIDs   []uint   `json:"categoryIds"`
	CategoryNames []string `json:"categoryNames"`
}

// UpdateEntryRequest is the body of PUT /entries/:id, omitted fields stay unchanged
type UpdateEntryRequest struct {
	Content       *string  `json:"content"`
	Type          *string  `json:"type"`
	CategoryIDs   []uint   `json:"categoryIds"`
	CategoryNames []string `json:"categoryNames"`
}

// ListEntriesHandler returns the caller's entries, filtered by type and category
func ListEntriesHandler(entries *service.EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID, err := queryInt(c, "categoryId")
		if err != nil {
			respondError(c, err)
			return
		}
		page, err := queryInt(c, "page")
		if err != nil {
			respondError(c, err)
			return
		}
		limit, err := queryInt(c, "limit")
		if err != nil {
			respondError(c, err)
			return
		}
		list, err := entries.List(c.Request.Context(), accountID(c), service.EntryFilter{
			Type:       c.Query("type"),
			CategoryID: uint(categoryID),
			Page:       page,
			Limit:      limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetEntryHandler returns one owned entry
func GetEntryHandler(entries *service.EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		entry, err := entries.Get(c.Request.Context(), accountID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// CreateEntryHandler translates and stores an entry
func CreateEntryHandler(entries *service.EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEntryRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		entry, err := entries.Create(c.Request.Context(), accountID(c), service.EntryInput{
			Content:    req.Content,
			Type:       req.Type,
			Categories: domain.NewCategoryAssignment(req.CategoryIDs, req.CategoryNames),
		})
		if err != nil {
			respondError(c, err) // Quota is 403, translation failure 500
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entry": entry, "translation": entry.Translation})
	}
}

// UpdateEntryHandler edits an owned entry
func UpdateEntryHandler(entries *service.EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req UpdateEntryRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		entry, err := entries.Update(c.Request.Context(), accountID(c), id, service.EntryPatch{
			Content:    req.Content,
			Type:       req.Type,
			Categories: domain.NewCategoryAssignment(req.CategoryIDs, req.CategoryNames),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Entry updated", "entry": entry})
	}
}

// DeleteEntryHandler removes an owned entry with its translation and links
func DeleteEntryHandler(entries *service.EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := entries.Delete(c.Request.Context(), accountID(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
	}
}
