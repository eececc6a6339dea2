package api

import (
	"net/http" // HTTP status codes

	"promptionary/internal/service" // Category workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// CategoryRequest is the body of POST and PUT /categories
type CategoryRequest struct {
	Name string `json:"name"` // Unique per account
}

// ListCategoriesHandler returns the caller's categories
func ListCategoriesHandler(categories *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := categories.List(c.Request.Context(), accountID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetCategoryHandler returns one owned category
func GetCategoryHandler(categories *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		category, err := categories.Get(c.Request.Context(), accountID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// CreateCategoryHandler adds a category
func CreateCategoryHandler(categories *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		category, err := categories.Create(c.Request.Context(), accountID(c), req.Name)
		if err != nil {
			respondError(c, err) // Missing or duplicate name
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// UpdateCategoryHandler renames an owned category
func UpdateCategoryHandler(categories *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		category, err := categories.Update(c.Request.Context(), accountID(c), id, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// DeleteCategoryHandler removes an owned category, never the general one
func DeleteCategoryHandler(categories *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := categories.Delete(c.Request.Context(), accountID(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
	}
}
