package domain

import (
	"errors"
)

var (
	MessageSuccessGetRecipes       = "success get recipes"
	MessageSuccessGetRecipeDetail  = "success get recipe detail"
	MessageSuccessCreateRecipe     = "recipe created successfully"
	MessageSuccessUpdateRecipe     = "recipe updated successfully"
	MessageSuccessDeleteRecipe     = "recipe deleted successfully"
	MessageSuccessFavorite         = "recipe added to favorites"
	MessageSuccessUnfavorite       = "recipe removed from favorites"
	MessageSuccessAddToCart        = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart   = "recipe removed from shopping cart"
	MessageSuccessGetLink          = "success get short link"
	MessageSuccessDownloadShopping = "shopping list generated"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedFavorite        = "failed to add recipe to favorites"
	MessageFailedUnfavorite      = "failed to remove recipe from favorites"
	MessageFailedAddToCart       = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart  = "failed to remove recipe from shopping cart"
	MessageFailedGetLink         = "failed to get short link"
	MessageFailedDownload        = "failed to generate shopping list"

	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrNotRecipeAuthor     = errors.New("only the author can modify this recipe")
	ErrMissingImage        = errors.New("recipe image is required")
	ErrInvalidImage        = errors.New("invalid image data")
	ErrEmptyIngredients    = errors.New("recipe must have at least one ingredient")
	ErrEmptyTags           = errors.New("recipe must have at least one tag")
	ErrDuplicateIngredient = errors.New("recipe ingredients must not repeat")
	ErrDuplicateTag        = errors.New("recipe tags must not repeat")
	ErrInvalidAmount       = errors.New("ingredient amount must be positive")
	ErrInvalidCookingTime  = errors.New("cooking time out of range")

	ErrAlreadyFavorited = errors.New("recipe already in favorites")
	ErrNotFavorited     = errors.New("recipe not in favorites")
	ErrAlreadyInCart    = errors.New("recipe already in shopping cart")
	ErrNotInCart        = errors.New("recipe not in shopping cart")
)

type (
	RecipeIngredientRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required"`
	}

	CreateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=256"`
		Text        string                    `json:"text" validate:"required"`
		Image       string                    `json:"image"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Ingredients []RecipeIngredientRequest `json:"ingredients"`
		Tags        []string                  `json:"tags"`
	}

	UpdateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=256"`
		Text        string                    `json:"text" validate:"required"`
		Image       string                    `json:"image"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Ingredients []RecipeIngredientRequest `json:"ingredients"`
		Tags        []string                  `json:"tags"`
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID                string                     `json:"id"`
		Tags              []TagResponse              `json:"tags"`
		Author            UserResponse               `json:"author"`
		Ingredients       []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited       bool                       `json:"is_favorited"`
		IsInShoppingCart  bool                       `json:"is_in_shopping_cart"`
		Name              string                     `json:"name"`
		Image             string                     `json:"image"`
		Text              string                     `json:"text"`
		CookingTime       int                        `json:"cooking_time"`
	}

	// ShortRecipeResponse is the minimal recipe view used by relation toggle
	// responses and embedded subscription lists.
	ShortRecipeResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeFilter carries the list-endpoint query filters. IsFavorited and
	// IsInShoppingCart are only applied for authenticated requests.
	RecipeFilter struct {
		TagSlugs         []string
		AuthorID         string
		IsFavorited      *bool
		IsInShoppingCart *bool
	}

	ShortLinkResponse struct {
		ShortLink string `json:"short-link"`
	}
)
