package recipe

import (
	"context"
	"mime/multipart"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRecipeRepository struct {
	recipes     map[string]*entities.Recipe
	ingredients map[string][]*entities.RecipeIngredient
	favorites   map[string]bool
	cart        map[string]bool
	cartRows    []CartIngredientRow

	addFavoriteErr error
	addToCartErr   error
}

func newStubRecipeRepository() *stubRecipeRepository {
	return &stubRecipeRepository{
		recipes:     map[string]*entities.Recipe{},
		ingredients: map[string][]*entities.RecipeIngredient{},
		favorites:   map[string]bool{},
		cart:        map[string]bool{},
	}
}

func relationKey(userID, recipeID string) string {
	return userID + "/" + recipeID
}

func (r *stubRecipeRepository) CreateRecipe(_ context.Context, recipe *entities.Recipe, ingredients []*entities.RecipeIngredient) error {
	r.recipes[recipe.ID.String()] = recipe
	r.ingredients[recipe.ID.String()] = ingredients
	return nil
}

func (r *stubRecipeRepository) UpdateRecipe(_ context.Context, recipe *entities.Recipe, tags []*entities.Tag, ingredients []*entities.RecipeIngredient) error {
	recipe.Tags = tags
	r.recipes[recipe.ID.String()] = recipe
	r.ingredients[recipe.ID.String()] = ingredients
	return nil
}

func (r *stubRecipeRepository) DeleteRecipe(_ context.Context, id string) error {
	delete(r.recipes, id)
	delete(r.ingredients, id)
	return nil
}

func (r *stubRecipeRepository) GetRecipeByID(_ context.Context, id string) (*entities.Recipe, error) {
	recipe, ok := r.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return recipe, nil
}

func (r *stubRecipeRepository) GetRecipes(_ context.Context, _ domain.RecipeFilter, _ string, _, _ int) ([]*entities.Recipe, int64, error) {
	result := make([]*entities.Recipe, 0, len(r.recipes))
	for _, recipe := range r.recipes {
		result = append(result, recipe)
	}
	return result, int64(len(result)), nil
}

func (r *stubRecipeRepository) GetRecipeIngredients(_ context.Context, recipeID string) ([]*entities.RecipeIngredient, error) {
	return r.ingredients[recipeID], nil
}

func (r *stubRecipeRepository) AddFavorite(_ context.Context, favorite *entities.Favorite) error {
	if r.addFavoriteErr != nil {
		return r.addFavoriteErr
	}
	r.favorites[relationKey(favorite.UserID.String(), favorite.RecipeID.String())] = true
	return nil
}

func (r *stubRecipeRepository) RemoveFavorite(_ context.Context, userID, recipeID string) (int64, error) {
	key := relationKey(userID, recipeID)
	if !r.favorites[key] {
		return 0, nil
	}
	delete(r.favorites, key)
	return 1, nil
}

func (r *stubRecipeRepository) IsRecipeFavorited(_ context.Context, userID, recipeID string) (bool, error) {
	return r.favorites[relationKey(userID, recipeID)], nil
}

func (r *stubRecipeRepository) AddToCart(_ context.Context, item *entities.ShoppingCart) error {
	if r.addToCartErr != nil {
		return r.addToCartErr
	}
	r.cart[relationKey(item.UserID.String(), item.RecipeID.String())] = true
	return nil
}

func (r *stubRecipeRepository) RemoveFromCart(_ context.Context, userID, recipeID string) (int64, error) {
	key := relationKey(userID, recipeID)
	if !r.cart[key] {
		return 0, nil
	}
	delete(r.cart, key)
	return 1, nil
}

func (r *stubRecipeRepository) IsRecipeInCart(_ context.Context, userID, recipeID string) (bool, error) {
	return r.cart[relationKey(userID, recipeID)], nil
}

func (r *stubRecipeRepository) GetCartIngredients(_ context.Context, _ string) ([]CartIngredientRow, error) {
	return r.cartRows, nil
}

type stubTagRepository struct {
	tags map[string]*entities.Tag
}

func (r *stubTagRepository) GetTags(_ context.Context) ([]*entities.Tag, error) {
	result := make([]*entities.Tag, 0, len(r.tags))
	for _, t := range r.tags {
		result = append(result, t)
	}
	return result, nil
}

func (r *stubTagRepository) GetTagByID(_ context.Context, id string) (*entities.Tag, error) {
	t, ok := r.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubTagRepository) GetTagsByIDs(_ context.Context, ids []uuid.UUID) ([]*entities.Tag, error) {
	var result []*entities.Tag
	for _, id := range ids {
		if t, ok := r.tags[id.String()]; ok {
			result = append(result, t)
		}
	}
	return result, nil
}

type stubIngredientRepository struct {
	ingredients map[string]*entities.Ingredient
}

func (r *stubIngredientRepository) GetIngredients(_ context.Context, _ string) ([]*entities.Ingredient, error) {
	result := make([]*entities.Ingredient, 0, len(r.ingredients))
	for _, item := range r.ingredients {
		result = append(result, item)
	}
	return result, nil
}

func (r *stubIngredientRepository) GetIngredientByID(_ context.Context, id string) (*entities.Ingredient, error) {
	item, ok := r.ingredients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubIngredientRepository) GetIngredientsByIDs(_ context.Context, ids []uuid.UUID) ([]*entities.Ingredient, error) {
	var result []*entities.Ingredient
	for _, id := range ids {
		if item, ok := r.ingredients[id.String()]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

func (r *stubIngredientRepository) GetAllNameUnits(_ context.Context) ([]*entities.Ingredient, error) {
	return r.GetIngredients(context.Background(), "")
}

func (r *stubIngredientRepository) CreateIngredients(_ context.Context, ingredients []*entities.Ingredient) error {
	for _, item := range ingredients {
		r.ingredients[item.ID.String()] = item
	}
	return nil
}

type stubUserRepository struct {
	users map[string]*entities.User
}

func (r *stubUserRepository) CreateUser(_ context.Context, user *entities.User) error {
	r.users[user.ID.String()] = user
	return nil
}

func (r *stubUserRepository) GetUserByID(_ context.Context, id string) (*entities.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubUserRepository) GetUserByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepository) GetUserByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepository) UpdateUser(_ context.Context, user *entities.User) error {
	r.users[user.ID.String()] = user
	return nil
}

func (r *stubUserRepository) GetUsers(_ context.Context, _, _ int) ([]*entities.User, int64, error) {
	result := make([]*entities.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user)
	}
	return result, int64(len(result)), nil
}

func (r *stubUserRepository) AddSubscription(_ context.Context, _ *entities.Subscription) error {
	return nil
}

func (r *stubUserRepository) RemoveSubscription(_ context.Context, _, _ string) (int64, error) {
	return 0, nil
}

func (r *stubUserRepository) IsSubscribed(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (r *stubUserRepository) GetSubscribedAuthors(_ context.Context, _ string, _, _ int) ([]*entities.User, int64, error) {
	return nil, 0, nil
}

func (r *stubUserRepository) CountRecipesByAuthor(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (r *stubUserRepository) GetRecipesByAuthor(_ context.Context, _ string, _ int) ([]*entities.Recipe, error) {
	return nil, nil
}

type stubS3 struct{}

func (s *stubS3) UploadFile(fileName string, _ *multipart.FileHeader, folder string, _ ...string) (string, error) {
	return folder + "/" + fileName, nil
}

func (s *stubS3) UploadBase64(fileName string, _ string, folder string) (string, error) {
	return folder + "/" + fileName, nil
}

func (s *stubS3) UpdateFile(objectKey string, _ *multipart.FileHeader, _ ...string) (string, error) {
	return objectKey, nil
}

func (s *stubS3) DeleteFile(_ string) error { return nil }

func (s *stubS3) GetPublicLinkKey(objectKey string) string {
	return "https://bucket.s3.test.amazonaws.com/" + objectKey
}

func (s *stubS3) GetObjectKeyFromLink(link string) string { return link }

type recipeFixture struct {
	service RecipeService
	repo    *stubRecipeRepository
	tags    *stubTagRepository
	items   *stubIngredientRepository
	users   *stubUserRepository

	author  *entities.User
	viewer  *entities.User
	recipe  *entities.Recipe
	tag     *entities.Tag
	salt    *entities.Ingredient
	flour   *entities.Ingredient
}

func newRecipeFixture() *recipeFixture {
	repo := newStubRecipeRepository()
	tags := &stubTagRepository{tags: map[string]*entities.Tag{}}
	items := &stubIngredientRepository{ingredients: map[string]*entities.Ingredient{}}
	users := &stubUserRepository{users: map[string]*entities.User{}}

	author := &entities.User{ID: uuid.New(), Username: "author", Email: "author@example.com"}
	viewer := &entities.User{ID: uuid.New(), Username: "viewer", Email: "viewer@example.com"}
	users.users[author.ID.String()] = author
	users.users[viewer.ID.String()] = viewer

	t := &entities.Tag{ID: uuid.New(), Name: "Завтрак", Slug: "breakfast"}
	tags.tags[t.ID.String()] = t

	salt := &entities.Ingredient{ID: uuid.New(), Name: "Соль", MeasurementUnit: "г"}
	flour := &entities.Ingredient{ID: uuid.New(), Name: "Мука", MeasurementUnit: "г"}
	items.ingredients[salt.ID.String()] = salt
	items.ingredients[flour.ID.String()] = flour

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    author.ID,
		Name:        "Блины",
		Text:        "Смешать и жарить",
		ImageURL:    "https://bucket.s3.test.amazonaws.com/recipes/r1",
		CookingTime: 20,
		Author:      author,
		Tags:        []*entities.Tag{t},
	}
	repo.recipes[recipe.ID.String()] = recipe

	service := NewRecipeService(repo, tags, items, users, &stubS3{})
	return &recipeFixture{
		service: service,
		repo:    repo,
		tags:    tags,
		items:   items,
		users:   users,
		author:  author,
		viewer:  viewer,
		recipe:  recipe,
		tag:     t,
		salt:    salt,
		flour:   flour,
	}
}

func TestFavoriteRecipeToggle(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()
	viewerID := f.viewer.ID.String()
	recipeID := f.recipe.ID.String()

	res, err := f.service.FavoriteRecipe(ctx, recipeID, viewerID)
	require.NoError(t, err)
	assert.Equal(t, recipeID, res.ID)
	assert.Equal(t, f.recipe.Name, res.Name)

	_, err = f.service.FavoriteRecipe(ctx, recipeID, viewerID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)

	require.NoError(t, f.service.UnfavoriteRecipe(ctx, recipeID, viewerID))

	err = f.service.UnfavoriteRecipe(ctx, recipeID, viewerID)
	assert.ErrorIs(t, err, domain.ErrNotFavorited)
}

func TestFavoriteRecipeNotFound(t *testing.T) {
	f := newRecipeFixture()

	_, err := f.service.FavoriteRecipe(context.Background(), uuid.NewString(), f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	err = f.service.UnfavoriteRecipe(context.Background(), uuid.NewString(), f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestFavoriteRecipeRacingDuplicate(t *testing.T) {
	f := newRecipeFixture()
	f.repo.addFavoriteErr = gorm.ErrDuplicatedKey

	_, err := f.service.FavoriteRecipe(context.Background(), f.recipe.ID.String(), f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)
}

func TestShoppingCartToggle(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()
	viewerID := f.viewer.ID.String()
	recipeID := f.recipe.ID.String()

	res, err := f.service.AddToCart(ctx, recipeID, viewerID)
	require.NoError(t, err)
	assert.Equal(t, recipeID, res.ID)

	_, err = f.service.AddToCart(ctx, recipeID, viewerID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	require.NoError(t, f.service.RemoveFromCart(ctx, recipeID, viewerID))

	err = f.service.RemoveFromCart(ctx, recipeID, viewerID)
	assert.ErrorIs(t, err, domain.ErrNotInCart)
}

func TestDownloadShoppingCartAggregates(t *testing.T) {
	f := newRecipeFixture()
	f.repo.cartRows = []CartIngredientRow{
		{Name: "Соль", MeasurementUnit: "г", Amount: 5},
		{Name: "Мука", MeasurementUnit: "г", Amount: 200},
		{Name: "Соль", MeasurementUnit: "г", Amount: 3},
	}

	got, err := f.service.DownloadShoppingCart(context.Background(), f.viewer.ID.String())
	require.NoError(t, err)

	want := "Список покупок для viewer\n\n" +
		"1. Мука — 200 г\n" +
		"2. Соль — 8 г\n"
	assert.Equal(t, want, string(got))
}

func TestDownloadShoppingCartUnknownUser(t *testing.T) {
	f := newRecipeFixture()

	_, err := f.service.DownloadShoppingCart(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func validCreateRequest(f *recipeFixture) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Оладьи",
		Text:        "Размешать и выпекать",
		Image:       "data:image/png;base64,aGVsbG8=",
		CookingTime: 15,
		Ingredients: []domain.RecipeIngredientRequest{
			{ID: f.salt.ID.String(), Amount: 5},
			{ID: f.flour.ID.String(), Amount: 150},
		},
		Tags: []string{f.tag.ID.String()},
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture()

	res, err := f.service.CreateRecipe(context.Background(), validCreateRequest(f), f.author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Оладьи", res.Name)
	assert.Len(t, res.Ingredients, 2)
	assert.Len(t, res.Tags, 1)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture()
	authorID := f.author.ID.String()

	tests := []struct {
		name    string
		mutate  func(req *domain.CreateRecipeRequest)
		wantErr error
	}{
		{
			name:    "missing image",
			mutate:  func(req *domain.CreateRecipeRequest) { req.Image = "" },
			wantErr: domain.ErrMissingImage,
		},
		{
			name:    "no ingredients",
			mutate:  func(req *domain.CreateRecipeRequest) { req.Ingredients = nil },
			wantErr: domain.ErrEmptyIngredients,
		},
		{
			name: "duplicate ingredient",
			mutate: func(req *domain.CreateRecipeRequest) {
				req.Ingredients = append(req.Ingredients, req.Ingredients[0])
			},
			wantErr: domain.ErrDuplicateIngredient,
		},
		{
			name: "zero amount",
			mutate: func(req *domain.CreateRecipeRequest) {
				req.Ingredients[0].Amount = 0
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "amount above limit",
			mutate: func(req *domain.CreateRecipeRequest) {
				req.Ingredients[0].Amount = 32001
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "no tags",
			mutate:  func(req *domain.CreateRecipeRequest) { req.Tags = nil },
			wantErr: domain.ErrEmptyTags,
		},
		{
			name: "duplicate tag",
			mutate: func(req *domain.CreateRecipeRequest) {
				req.Tags = append(req.Tags, req.Tags[0])
			},
			wantErr: domain.ErrDuplicateTag,
		},
		{
			name:    "zero cooking time",
			mutate:  func(req *domain.CreateRecipeRequest) { req.CookingTime = 0 },
			wantErr: domain.ErrInvalidCookingTime,
		},
		{
			name: "unknown tag",
			mutate: func(req *domain.CreateRecipeRequest) {
				req.Tags = []string{uuid.NewString()}
			},
			wantErr: domain.ErrTagNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest(f)
			tt.mutate(&req)

			_, err := f.service.CreateRecipe(context.Background(), req, authorID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateRecipeUnknownIngredientsListed(t *testing.T) {
	f := newRecipeFixture()
	missing := uuid.NewString()

	req := validCreateRequest(f)
	req.Ingredients = append(req.Ingredients, domain.RecipeIngredientRequest{ID: missing, Amount: 1})

	_, err := f.service.CreateRecipe(context.Background(), req, f.author.ID.String())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
	assert.Contains(t, err.Error(), missing)
}

func TestUpdateRecipeAuthorOnly(t *testing.T) {
	f := newRecipeFixture()

	req := domain.UpdateRecipeRequest{
		Name:        "Новое имя",
		Text:        "Новый текст",
		CookingTime: 25,
		Ingredients: []domain.RecipeIngredientRequest{{ID: f.salt.ID.String(), Amount: 2}},
		Tags:        []string{f.tag.ID.String()},
	}

	_, err := f.service.UpdateRecipe(context.Background(), f.recipe.ID.String(), req, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	res, err := f.service.UpdateRecipe(context.Background(), f.recipe.ID.String(), req, f.author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Новое имя", res.Name)
	assert.Len(t, res.Ingredients, 1)
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	res, err := f.service.CreateRecipe(ctx, validCreateRequest(f), f.author.ID.String())
	require.NoError(t, err)
	require.Len(t, res.Ingredients, 2)

	req := domain.UpdateRecipeRequest{
		Name:        res.Name,
		Text:        res.Text,
		CookingTime: res.CookingTime,
		Ingredients: []domain.RecipeIngredientRequest{{ID: f.flour.ID.String(), Amount: 300}},
		Tags:        []string{f.tag.ID.String()},
	}
	updated, err := f.service.UpdateRecipe(ctx, res.ID, req, f.author.ID.String())
	require.NoError(t, err)

	// The old rows are gone, not merged with the new ones.
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, f.flour.ID.String(), updated.Ingredients[0].ID)
	assert.Equal(t, 300, updated.Ingredients[0].Amount)
}

func TestDeleteRecipe(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()
	recipeID := f.recipe.ID.String()

	err := f.service.DeleteRecipe(ctx, recipeID, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	require.NoError(t, f.service.DeleteRecipe(ctx, recipeID, f.author.ID.String()))

	_, err = f.service.GetRecipeDetail(ctx, recipeID, "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRecipesAnonymousRelationFilter(t *testing.T) {
	f := newRecipeFixture()
	truthy := true

	recipes, count, err := f.service.GetRecipes(context.Background(), domain.RecipeFilter{IsFavorited: &truthy}, "", 1, 6)
	require.NoError(t, err)
	assert.Empty(t, recipes)
	assert.Zero(t, count)

	// A falsy filter from an anonymous caller is a no-op, not an empty result.
	falsy := false
	recipes, count, err = f.service.GetRecipes(context.Background(), domain.RecipeFilter{IsFavorited: &falsy}, "", 1, 6)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
	assert.EqualValues(t, 1, count)
}

func TestResolveShortLink(t *testing.T) {
	f := newRecipeFixture()

	target, err := f.service.ResolveShortLink(context.Background(), f.recipe.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "/recipes/"+f.recipe.ID.String()+"/", target)

	_, err = f.service.ResolveShortLink(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}
