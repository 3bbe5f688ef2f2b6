package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
	"github.com/loomline/backend/internal/util"
)

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a URL slug from a category name.
func slugify(name string) string {
	slug := slugCleaner.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// ListCategories returns all categories ordered by name
// GET /api/v1/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := database.DB.Order("name ASC").Find(&categories).Error; err != nil {
		util.RespondInternalError(c, "failed to load categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory returns one category by slug
// GET /api/v1/categories/:slug
func (h *Handlers) GetCategory(c *gin.Context) {
	var category models.Category
	if err := database.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		util.RespondNotFound(c, "category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Description string `json:"description" binding:"max=500"`
}

// CreateCategory creates a new category (admin only, enforced by routing)
// POST /api/v1/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	slug := slugify(req.Name)
	if slug == "" {
		util.RespondValidationError(c, "name", "name must contain letters or digits")
		return
	}

	var existing models.Category
	if err := database.DB.Where("slug = ?", slug).First(&existing).Error; err == nil {
		util.RespondConflict(c, "category already exists")
		return
	}

	category := models.Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
	}
	if err := database.DB.Create(&category).Error; err != nil {
		util.RespondInternalError(c, "failed to create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}
