package user

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils"

	jwtlib "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type stubUserRepository struct {
	users         map[string]*entities.User
	subscriptions map[string]bool
	recipes       []*entities.Recipe

	addSubscriptionErr error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{
		users:         map[string]*entities.User{},
		subscriptions: map[string]bool{},
	}
}

func subscriptionKey(userID, authorID string) string {
	return userID + "/" + authorID
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

func (r *stubUserRepository) AddSubscription(_ context.Context, subscription *entities.Subscription) error {
	if r.addSubscriptionErr != nil {
		return r.addSubscriptionErr
	}
	r.subscriptions[subscriptionKey(subscription.UserID.String(), subscription.AuthorID.String())] = true
	return nil
}

func (r *stubUserRepository) RemoveSubscription(_ context.Context, userID, authorID string) (int64, error) {
	key := subscriptionKey(userID, authorID)
	if !r.subscriptions[key] {
		return 0, nil
	}
	delete(r.subscriptions, key)
	return 1, nil
}

func (r *stubUserRepository) IsSubscribed(_ context.Context, userID, authorID string) (bool, error) {
	return r.subscriptions[subscriptionKey(userID, authorID)], nil
}

func (r *stubUserRepository) GetSubscribedAuthors(_ context.Context, userID string, _, _ int) ([]*entities.User, int64, error) {
	var authors []*entities.User
	for key := range r.subscriptions {
		for _, user := range r.users {
			if key == subscriptionKey(userID, user.ID.String()) {
				authors = append(authors, user)
			}
		}
	}
	return authors, int64(len(authors)), nil
}

func (r *stubUserRepository) CountRecipesByAuthor(_ context.Context, authorID string) (int64, error) {
	var count int64
	for _, recipe := range r.recipes {
		if recipe.AuthorID.String() == authorID {
			count++
		}
	}
	return count, nil
}

func (r *stubUserRepository) GetRecipesByAuthor(_ context.Context, authorID string, limit int) ([]*entities.Recipe, error) {
	var result []*entities.Recipe
	for _, recipe := range r.recipes {
		if recipe.AuthorID.String() != authorID {
			continue
		}
		result = append(result, recipe)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

type stubJWTService struct{}

func (s *stubJWTService) GenerateTokenUser(userId string, role string) string {
	return "token-" + userId + "-" + role
}

func (s *stubJWTService) ValidateTokenUser(_ string) (*jwtlib.Token, error) {
	return &jwtlib.Token{Valid: true}, nil
}

func (s *stubJWTService) GetUserIDByToken(_ string) (string, string, error) {
	return "", "", nil
}

func (s *stubJWTService) GenerateTokenResetPassword(_ map[string]any, _ time.Duration) (string, error) {
	return "reset-token", nil
}

func (s *stubJWTService) ValidateTokenResetPassword(_ string) (jwtlib.MapClaims, error) {
	return jwtlib.MapClaims{}, nil
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

func newUserFixture() (UserService, *stubUserRepository) {
	repo := newStubUserRepository()
	return NewUserService(repo, &stubJWTService{}, &stubS3{}), repo
}

func addUser(repo *stubUserRepository, username, email string) *entities.User {
	user := &entities.User{
		ID:       uuid.New(),
		Email:    email,
		Username: username,
		Role:     domain.RoleUser,
	}
	repo.users[user.ID.String()] = user
	return user
}

func TestRegister(t *testing.T) {
	service, _ := newUserFixture()

	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     "new@example.com",
		Username:  "new.user",
		FirstName: "New",
		LastName:  "User",
		Password:  "secret-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "new.user", res.Username)
}

func TestRegisterRejectsInvalidUsername(t *testing.T) {
	service, _ := newUserFixture()

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     "new@example.com",
		Username:  "boo!hoo%",
		FirstName: "New",
		LastName:  "User",
		Password:  "secret-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrInvalidUsername)
	assert.Contains(t, err.Error(), "!")
	assert.Contains(t, err.Error(), "%")
}

func TestRegisterTakenIdentity(t *testing.T) {
	service, repo := newUserFixture()
	addUser(repo, "existing", "existing@example.com")

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     "existing@example.com",
		Username:  "someone.else",
		FirstName: "A",
		LastName:  "B",
		Password:  "secret-password",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyRegistered)

	_, err = service.Register(context.Background(), domain.RegisterRequest{
		Email:     "fresh@example.com",
		Username:  "existing",
		FirstName: "A",
		LastName:  "B",
		Password:  "secret-password",
	})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	service, repo := newUserFixture()
	user := addUser(repo, "login.user", "login@example.com")

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)
	user.Password = string(hashed)

	res, err := service.Login(context.Background(), domain.LoginRequest{
		Email:    "login@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-"+user.ID.String()+"-"+domain.RoleUser, res.Token)

	_, err = service.Login(context.Background(), domain.LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = service.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSubscribeToggle(t *testing.T) {
	service, repo := newUserFixture()
	follower := addUser(repo, "follower", "follower@example.com")
	author := addUser(repo, "author", "author@example.com")
	ctx := context.Background()

	res, err := service.Subscribe(ctx, follower.ID.String(), author.ID.String(), 0)
	require.NoError(t, err)
	assert.Equal(t, author.ID.String(), res.ID)
	assert.True(t, res.IsSubscribed)

	_, err = service.Subscribe(ctx, follower.ID.String(), author.ID.String(), 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	require.NoError(t, service.Unsubscribe(ctx, follower.ID.String(), author.ID.String()))

	err = service.Unsubscribe(ctx, follower.ID.String(), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotSubscribed)
}

func TestSubscribeToSelf(t *testing.T) {
	service, repo := newUserFixture()
	user := addUser(repo, "loner", "loner@example.com")

	// Rejected before any lookup or write, regardless of state.
	_, err := service.Subscribe(context.Background(), user.ID.String(), user.ID.String(), 0)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)

	_, err = service.Subscribe(context.Background(), user.ID.String(), user.ID.String(), 0)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)
}

func TestSubscribeUnknownAuthor(t *testing.T) {
	service, repo := newUserFixture()
	follower := addUser(repo, "follower", "follower@example.com")

	_, err := service.Subscribe(context.Background(), follower.ID.String(), uuid.NewString(), 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = service.Unsubscribe(context.Background(), follower.ID.String(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSubscribeRacingDuplicate(t *testing.T) {
	service, repo := newUserFixture()
	follower := addUser(repo, "follower", "follower@example.com")
	author := addUser(repo, "author", "author@example.com")
	repo.addSubscriptionErr = gorm.ErrDuplicatedKey

	_, err := service.Subscribe(context.Background(), follower.ID.String(), author.ID.String(), 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
}

func TestGetSubscriptionsRecipesLimit(t *testing.T) {
	service, repo := newUserFixture()
	follower := addUser(repo, "follower", "follower@example.com")
	author := addUser(repo, "author", "author@example.com")
	repo.subscriptions[subscriptionKey(follower.ID.String(), author.ID.String())] = true

	for i := 0; i < 5; i++ {
		repo.recipes = append(repo.recipes, &entities.Recipe{
			ID:       uuid.New(),
			AuthorID: author.ID,
			Name:     "Рецепт",
		})
	}

	subscriptions, count, err := service.GetSubscriptions(context.Background(), follower.ID.String(), 1, 6, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, subscriptions, 1)
	assert.EqualValues(t, 5, subscriptions[0].RecipesCount)
	assert.Len(t, subscriptions[0].Recipes, 3)
}

func TestUpdateAvatar(t *testing.T) {
	service, repo := newUserFixture()
	user := addUser(repo, "avatar.user", "avatar@example.com")

	res, err := service.UpdateAvatar(context.Background(), domain.UpdateAvatarRequest{
		Avatar: "data:image/png;base64,aGVsbG8=",
	}, user.ID.String())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Avatar)
	assert.Equal(t, res.Avatar, repo.users[user.ID.String()].AvatarURL)

	require.NoError(t, service.DeleteAvatar(context.Background(), user.ID.String()))
	assert.Empty(t, repo.users[user.ID.String()].AvatarURL)
}
