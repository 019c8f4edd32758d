package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/tag"
	"Foodgram-Backend/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error

		FavoriteRecipe(ctx context.Context, recipeID, userID string) (domain.ShortRecipeResponse, error)
		UnfavoriteRecipe(ctx context.Context, recipeID, userID string) error
		AddToCart(ctx context.Context, recipeID, userID string) (domain.ShortRecipeResponse, error)
		RemoveFromCart(ctx context.Context, recipeID, userID string) error

		DownloadShoppingCart(ctx context.Context, userID string) ([]byte, error)
		GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error)
		ResolveShortLink(ctx context.Context, recipeID string) (string, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]domain.RecipeResponse, int64, error) {
	// A relation filter from an anonymous caller can never match anything.
	if viewerID == "" {
		if (filter.IsFavorited != nil && *filter.IsFavorited) ||
			(filter.IsInShoppingCart != nil && *filter.IsInShoppingCart) {
			return []domain.RecipeResponse{}, 0, nil
		}
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		response, err := s.buildRecipeResponse(ctx, recipe, viewerID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, response)
	}
	return result, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	return s.buildRecipeResponse(ctx, recipe, viewerID)
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	payload := recipePayload{
		CookingTime: req.CookingTime,
		Ingredients: req.Ingredients,
		Tags:        req.Tags,
	}
	tags, ingredients, err := s.validateRecipePayload(ctx, payload)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Image == "" {
		return domain.RecipeResponse{}, domain.ErrMissingImage
	}

	authorUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	recipeID := uuid.New()
	objectKey, err := s.s3.UploadBase64(fmt.Sprintf("recipe-%s", recipeID), req.Image, "recipes")
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrInvalidImage
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorUUID,
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    s.s3.GetPublicLinkKey(objectKey),
		CookingTime: req.CookingTime,
		Tags:        tags,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, ingredients); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != userID {
		return domain.RecipeResponse{}, domain.ErrNotRecipeAuthor
	}

	payload := recipePayload{
		CookingTime: req.CookingTime,
		Ingredients: req.Ingredients,
		Tags:        req.Tags,
	}
	tags, ingredients, err := s.validateRecipePayload(ctx, payload)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Image != "" {
		if objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL); objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
		objectKey, err := s.s3.UploadBase64(fmt.Sprintf("recipe-%s", recipe.ID), req.Image, "recipes")
		if err != nil {
			return domain.RecipeResponse{}, domain.ErrInvalidImage
		}
		recipe.ImageURL = s.s3.GetPublicLinkKey(objectKey)
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	recipe.Tags = nil // replaced through the association, not the save

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, tags, ingredients); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID {
		return domain.ErrNotRecipeAuthor
	}

	if recipe.ImageURL != "" {
		if objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL); objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

func (s *recipeService) FavoriteRecipe(ctx context.Context, recipeID, userID string) (domain.ShortRecipeResponse, error) {
	return s.addRelation(ctx, recipeID, userID,
		s.recipeRepository.IsRecipeFavorited,
		func(ctx context.Context, userUUID, recipeUUID uuid.UUID) error {
			return s.recipeRepository.AddFavorite(ctx, &entities.Favorite{
				ID:        uuid.New(),
				UserID:    userUUID,
				RecipeID:  recipeUUID,
				CreatedAt: time.Now(),
			})
		},
		domain.ErrAlreadyFavorited,
	)
}

func (s *recipeService) UnfavoriteRecipe(ctx context.Context, recipeID, userID string) error {
	return s.removeRelation(ctx, recipeID, userID,
		s.recipeRepository.RemoveFavorite, domain.ErrNotFavorited)
}

func (s *recipeService) AddToCart(ctx context.Context, recipeID, userID string) (domain.ShortRecipeResponse, error) {
	return s.addRelation(ctx, recipeID, userID,
		s.recipeRepository.IsRecipeInCart,
		func(ctx context.Context, userUUID, recipeUUID uuid.UUID) error {
			return s.recipeRepository.AddToCart(ctx, &entities.ShoppingCart{
				ID:        uuid.New(),
				UserID:    userUUID,
				RecipeID:  recipeUUID,
				CreatedAt: time.Now(),
			})
		},
		domain.ErrAlreadyInCart,
	)
}

func (s *recipeService) RemoveFromCart(ctx context.Context, recipeID, userID string) error {
	return s.removeRelation(ctx, recipeID, userID,
		s.recipeRepository.RemoveFromCart, domain.ErrNotInCart)
}

// addRelation implements the add half of a user-recipe relation toggle. The
// composite unique index is the arbiter for concurrent adds: one row is
// created, the loser's duplicated-key error maps to errExists.
func (s *recipeService) addRelation(
	ctx context.Context,
	recipeID, userID string,
	exists func(ctx context.Context, userID, recipeID string) (bool, error),
	create func(ctx context.Context, userUUID, recipeUUID uuid.UUID) error,
	errExists error,
) (domain.ShortRecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShortRecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.ShortRecipeResponse{}, err
	}

	has, err := exists(ctx, userID, recipeID)
	if err != nil {
		return domain.ShortRecipeResponse{}, err
	}
	if has {
		return domain.ShortRecipeResponse{}, errExists
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ShortRecipeResponse{}, domain.ErrParseUUID
	}

	if err := create(ctx, userUUID, recipe.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ShortRecipeResponse{}, errExists
		}
		return domain.ShortRecipeResponse{}, err
	}

	return domain.ShortRecipeResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}, nil
}

func (s *recipeService) removeRelation(
	ctx context.Context,
	recipeID, userID string,
	remove func(ctx context.Context, userID, recipeID string) (int64, error),
	errMissing error,
) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	deleted, err := remove(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errMissing
	}
	return nil
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID string) ([]byte, error) {
	owner, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	rows, err := s.recipeRepository.GetCartIngredients(ctx, userID)
	if err != nil {
		return nil, err
	}

	return renderShoppingList(owner.Username, rows), nil
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShortLinkResponse{}, domain.ErrRecipeNotFound
		}
		return domain.ShortLinkResponse{}, err
	}

	base := strings.TrimRight(utils.GetConfig("APP_URL"), "/")
	return domain.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s", base, recipe.ID),
	}, nil
}

// ResolveShortLink returns the canonical recipe path for a short link id.
func (s *recipeService) ResolveShortLink(ctx context.Context, recipeID string) (string, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrRecipeNotFound
		}
		return "", err
	}
	return fmt.Sprintf("/recipes/%s/", recipe.ID), nil
}

type recipePayload struct {
	CookingTime int
	Ingredients []domain.RecipeIngredientRequest
	Tags        []string
}

// validateRecipePayload runs every write-side check before anything touches
// the database, and resolves tag and ingredient references.
func (s *recipeService) validateRecipePayload(ctx context.Context, payload recipePayload) ([]*entities.Tag, []*entities.RecipeIngredient, error) {
	if payload.CookingTime < domain.MinPositiveSmallInt || payload.CookingTime > domain.MaxPositiveSmallInt {
		return nil, nil, domain.ErrInvalidCookingTime
	}

	if len(payload.Tags) == 0 {
		return nil, nil, domain.ErrEmptyTags
	}
	seenTags := make(map[string]bool, len(payload.Tags))
	for _, id := range payload.Tags {
		if seenTags[id] {
			return nil, nil, domain.ErrDuplicateTag
		}
		seenTags[id] = true
	}

	if len(payload.Ingredients) == 0 {
		return nil, nil, domain.ErrEmptyIngredients
	}
	seenIngredients := make(map[string]bool, len(payload.Ingredients))
	for _, item := range payload.Ingredients {
		if seenIngredients[item.ID] {
			return nil, nil, domain.ErrDuplicateIngredient
		}
		seenIngredients[item.ID] = true
		if item.Amount < domain.MinPositiveSmallInt || item.Amount > domain.MaxPositiveSmallInt {
			return nil, nil, domain.ErrInvalidAmount
		}
	}

	tagIDs, err := parseUUIDs(payload.Tags)
	if err != nil {
		return nil, nil, domain.ErrParseUUID
	}
	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	ingredientIDs := make([]string, 0, len(payload.Ingredients))
	for _, item := range payload.Ingredients {
		ingredientIDs = append(ingredientIDs, item.ID)
	}
	parsedIngredientIDs, err := parseUUIDs(ingredientIDs)
	if err != nil {
		return nil, nil, domain.ErrParseUUID
	}
	found, err := s.ingredientRepository.GetIngredientsByIDs(ctx, parsedIngredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(found) != len(parsedIngredientIDs) {
		known := make(map[string]bool, len(found))
		for _, item := range found {
			known[item.ID.String()] = true
		}
		var missing []string
		for _, id := range ingredientIDs {
			if !known[id] {
				missing = append(missing, id)
			}
		}
		return nil, nil, domain.NewUnknownIngredientsError(missing)
	}

	rows := make([]*entities.RecipeIngredient, 0, len(payload.Ingredients))
	for i, item := range payload.Ingredients {
		rows = append(rows, &entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: parsedIngredientIDs[i],
			Amount:       item.Amount,
		})
	}

	return tags, rows, nil
}

func (s *recipeService) buildRecipeResponse(ctx context.Context, recipe *entities.Recipe, viewerID string) (domain.RecipeResponse, error) {
	ingredients, err := s.recipeRepository.GetRecipeIngredients(ctx, recipe.ID.String())
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	ingredientResponses := make([]domain.RecipeIngredientResponse, 0, len(ingredients))
	for _, row := range ingredients {
		response := domain.RecipeIngredientResponse{
			ID:     row.IngredientID.String(),
			Amount: row.Amount,
		}
		if row.Ingredient != nil {
			response.Name = row.Ingredient.Name
			response.MeasurementUnit = row.Ingredient.MeasurementUnit
		}
		ingredientResponses = append(ingredientResponses, response)
	}

	tagResponses := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tagResponses = append(tagResponses, domain.TagResponse{
			ID:   t.ID.String(),
			Name: t.Name,
			Slug: t.Slug,
		})
	}

	author := domain.UserResponse{ID: recipe.AuthorID.String()}
	if recipe.Author != nil {
		author.Email = recipe.Author.Email
		author.Username = recipe.Author.Username
		author.FirstName = recipe.Author.FirstName
		author.LastName = recipe.Author.LastName
		author.Avatar = recipe.Author.AvatarURL
	}

	isFavorited, isInCart := false, false
	if viewerID != "" {
		isFavorited, _ = s.recipeRepository.IsRecipeFavorited(ctx, viewerID, recipe.ID.String())
		isInCart, _ = s.recipeRepository.IsRecipeInCart(ctx, viewerID, recipe.ID.String())
		if viewerID != recipe.AuthorID.String() {
			author.IsSubscribed, _ = s.userRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID.String())
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Tags:             tagResponses,
		Author:           author,
		Ingredients:      ingredientResponses,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}, nil
}
