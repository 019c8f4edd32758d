package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils"
	"Foodgram-Backend/internal/utils/mailing"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)
		GetUsers(ctx context.Context, page, limit int) ([]domain.UserResponse, int64, error)
		GetUserByID(ctx context.Context, id string, viewerID string) (domain.UserResponse, error)
		UpdateAvatar(ctx context.Context, req domain.UpdateAvatarRequest, userID string) (domain.UpdateAvatarResponse, error)
		DeleteAvatar(ctx context.Context, userID string) error
		Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, userID, authorID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error)
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		s3             storage.AwsS3
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, s3 storage.AwsS3) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		s3:             s3,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	if err := utils.ValidateUsername(req.Username); err != nil {
		return domain.RegisterResponse{}, err
	}

	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.RegisterResponse{}, domain.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}

	if _, err := s.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return domain.RegisterResponse{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := &entities.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashed),
		Role:      domain.RoleUser,
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		// The unique indexes are the arbiter when two registrations race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RegisterResponse{}, domain.ErrEmailAlreadyRegistered
		}
		return domain.RegisterResponse{}, err
	}

	return domain.RegisterResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String(), user.Role)
	return domain.LoginResponse{Token: token, Role: user.Role}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return s.buildUserResponse(ctx, user, userID), nil
}

func (s *userService) GetUsers(ctx context.Context, page, limit int) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.UserResponse, 0, len(users))
	for _, user := range users {
		result = append(result, s.buildUserResponse(ctx, user, ""))
	}
	return result, count, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string, viewerID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return s.buildUserResponse(ctx, user, viewerID), nil
}

func (s *userService) UpdateAvatar(ctx context.Context, req domain.UpdateAvatarRequest, userID string) (domain.UpdateAvatarResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UpdateAvatarResponse{}, domain.ErrUserNotFound
		}
		return domain.UpdateAvatarResponse{}, err
	}

	if user.AvatarURL != "" {
		if objectKey := s.s3.GetObjectKeyFromLink(user.AvatarURL); objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	objectKey, err := s.s3.UploadBase64(fmt.Sprintf("avatar-%s", user.ID), req.Avatar, "avatars")
	if err != nil {
		return domain.UpdateAvatarResponse{}, err
	}

	user.AvatarURL = s.s3.GetPublicLinkKey(objectKey)
	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return domain.UpdateAvatarResponse{}, err
	}

	return domain.UpdateAvatarResponse{Avatar: user.AvatarURL}, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, userID string) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if user.AvatarURL != "" {
		if objectKey := s.s3.GetObjectKeyFromLink(user.AvatarURL); objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	user.AvatarURL = ""
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	// The self-reference check runs before anything is written.
	if userID == authorID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	subscribed, err := s.userRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if subscribed {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}

	subscription := &entities.Subscription{
		ID:        uuid.New(),
		UserID:    userUUID,
		AuthorID:  author.ID,
		CreatedAt: time.Now(),
	}
	if err := s.userRepository.AddSubscription(ctx, subscription); err != nil {
		// Two concurrent subscribes: the unique index lets one through, the
		// loser reports the same already-subscribed error.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
		}
		return domain.SubscriptionResponse{}, err
	}

	return s.buildSubscriptionResponse(ctx, author, userID, recipesLimit)
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	deleted, err := s.userRepository.RemoveSubscription(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error) {
	authors, count, err := s.userRepository.GetSubscribedAuthors(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		response, err := s.buildSubscriptionResponse(ctx, author, userID, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, response)
	}
	return result, count, nil
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenResetPassword(
		map[string]any{"user_id": user.ID.String()},
		time.Minute*30,
	)
	if err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", utils.GetConfig("APP_URL"), token)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Follow this link to reset your password: <a href=%q>%s</a></p>"+
			"<p>The link expires in 30 minutes.</p>",
		user.Username, resetLink, resetLink,
	)
	return mailing.SendMail(user.Email, "Password reset", body)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	claims, err := s.jwtService.ValidateTokenResetPassword(req.Token)
	if err != nil {
		return err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hashed)
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) buildUserResponse(ctx context.Context, user *entities.User, viewerID string) domain.UserResponse {
	isSubscribed := false
	if viewerID != "" && viewerID != user.ID.String() {
		isSubscribed, _ = s.userRepository.IsSubscribed(ctx, viewerID, user.ID.String())
	}

	return domain.UserResponse{
		ID:           user.ID.String(),
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Avatar:       user.AvatarURL,
		IsSubscribed: isSubscribed,
	}
}

func (s *userService) buildSubscriptionResponse(ctx context.Context, author *entities.User, viewerID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	count, err := s.userRepository.CountRecipesByAuthor(ctx, author.ID.String())
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	recipes, err := s.userRepository.GetRecipesByAuthor(ctx, author.ID.String(), recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	shortRecipes := make([]domain.ShortRecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		shortRecipes = append(shortRecipes, domain.ShortRecipeResponse{
			ID:          recipe.ID.String(),
			Name:        recipe.Name,
			Image:       recipe.ImageURL,
			CookingTime: recipe.CookingTime,
		})
	}

	return domain.SubscriptionResponse{
		UserResponse: s.buildUserResponse(ctx, author, viewerID),
		Recipes:      shortRecipes,
		RecipesCount: count,
	}, nil
}
