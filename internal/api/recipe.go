package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recipehub/backend/internal/middleware"
	"github.com/recipehub/backend/internal/model"
	"github.com/recipehub/backend/internal/repository"
	"github.com/recipehub/backend/internal/service"
)

// uploads larger than this are rejected before reading the full body
const maxImageBytes = 5 << 20

type RecipeHandler struct {
	repo   *repository.RecipeRepository
	images *service.ImageService
}

func NewRecipeHandler(repo *repository.RecipeRepository, images *service.ImageService) *RecipeHandler {
	return &RecipeHandler{repo: repo, images: images}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipes, err := h.repo.ListForUser(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var draft model.RecipeDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	// Blank entries don't count toward the required minimum.
	if len(model.FilterIngredients(draft.Ingredients)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	recipe, err := h.repo.Create(c.Request.Context(), principal.ID, draft)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var patch model.RecipePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipe, err := h.repo.Update(c.Request.Context(), principal.ID, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), principal.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadImage stores a raw image body in S3 and returns its public URL for
// use as a recipe's image field.
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	if _, ok := middleware.PrincipalFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	contentType := c.ContentType()
	if !service.SupportedImageType(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	if len(data) == 0 || len(data) > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be between 1 byte and 5 MB"})
		return
	}

	url, err := h.images.UploadRecipeImage(c.Request.Context(), data, contentType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
