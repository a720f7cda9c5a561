package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/recipehub/backend/internal/middleware"
	"github.com/recipehub/backend/internal/repository"
	"github.com/recipehub/backend/internal/service"
)

// SetupAPI registers all routes. redisClient and images are optional: with
// a nil redis client write routes are not rate limited, and with a nil
// image service the upload route is not registered.
func SetupAPI(router gin.IRouter, repo *repository.RecipeRepository, gateway IdentityGateway, redisClient *redis.Client, images *service.ImageService) {
	authHandler := NewAuthHandler(gateway)
	recipeHandler := NewRecipeHandler(repo, images)

	authHandler.RegisterRoutes(router)

	recipes := router.Group("/recipes")
	recipes.Use(middleware.AuthMiddleware(gateway))
	{
		recipes.GET("", recipeHandler.ListRecipes)

		if redisClient != nil {
			createLimiter := middleware.NewRecipeCreationRateLimiter(redisClient)
			modifyLimiter := middleware.NewRecipeModificationRateLimiter(redisClient)
			recipes.POST("", createLimiter.Middleware(), recipeHandler.CreateRecipe)
			recipes.PUT("/:id", modifyLimiter.Middleware(), recipeHandler.UpdateRecipe)
		} else {
			recipes.POST("", recipeHandler.CreateRecipe)
			recipes.PUT("/:id", recipeHandler.UpdateRecipe)
		}

		recipes.DELETE("/:id", recipeHandler.DeleteRecipe)

		if images != nil {
			recipes.POST("/image", recipeHandler.UploadImage)
		}
	}
}
