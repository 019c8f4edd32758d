package recipe

import (
	"context"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// CartIngredientRow is one RecipeIngredient row of a carted recipe,
	// flattened with its ingredient identity. Aggregation happens in the
	// service so the report is independent of database collation.
	CartIngredientRow struct {
		Name            string
		MeasurementUnit string
		Amount          int
	}

	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, ingredients []*entities.RecipeIngredient) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, ingredients []*entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, id string) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error)
		GetRecipeIngredients(ctx context.Context, recipeID string) ([]*entities.RecipeIngredient, error)

		AddFavorite(ctx context.Context, favorite *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error)
		IsRecipeFavorited(ctx context.Context, userID, recipeID string) (bool, error)

		AddToCart(ctx context.Context, item *entities.ShoppingCart) error
		RemoveFromCart(ctx context.Context, userID, recipeID string) (int64, error)
		IsRecipeInCart(ctx context.Context, userID, recipeID string) (bool, error)
		GetCartIngredients(ctx context.Context, userID string) ([]CartIngredientRow, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, ingredients []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		for _, ingredient := range ingredients {
			ingredient.RecipeID = recipe.ID
		}
		return tx.Create(&ingredients).Error
	})
}

// UpdateRecipe replaces the tag set and all RecipeIngredient rows in one
// transaction. Ingredient rows are never diffed.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, ingredients []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for _, ingredient := range ingredients {
			ingredient.RecipeID = recipe.ID
		}
		return tx.Create(&ingredients).Error
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Recipe{}).Error
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if len(filter.TagSlugs) > 0 {
		query = query.Where(
			"recipes.id IN (SELECT rt.recipe_id FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE t.slug IN ?)",
			filter.TagSlugs,
		)
	}
	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.IsFavorited != nil && viewerID != "" {
		sub := "recipes.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)"
		if *filter.IsFavorited {
			query = query.Where(sub, viewerID)
		} else {
			query = query.Where("NOT ("+sub+")", viewerID)
		}
	}
	if filter.IsInShoppingCart != nil && viewerID != "" {
		sub := "recipes.id IN (SELECT recipe_id FROM shopping_carts WHERE user_id = ?)"
		if *filter.IsInShoppingCart {
			query = query.Where(sub, viewerID)
		} else {
			query = query.Where("NOT ("+sub+")", viewerID)
		}
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Author").
		Preload("Tags").
		Offset(offset).
		Limit(limit).
		Order("recipes.created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) GetRecipeIngredients(ctx context.Context, recipeID string) ([]*entities.RecipeIngredient, error) {
	var ingredients []*entities.RecipeIngredient
	if err := r.db.WithContext(ctx).
		Preload("Ingredient").
		Where("recipe_id = ?", recipeID).
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, favorite *entities.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsRecipeFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddToCart(ctx context.Context, item *entities.ShoppingCart) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCart{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsRecipeInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCart{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) GetCartIngredients(ctx context.Context, userID string) ([]CartIngredientRow, error) {
	var rows []CartIngredientRow
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func parseUUIDs(ids []string) ([]uuid.UUID, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, u)
	}
	return parsed, nil
}
