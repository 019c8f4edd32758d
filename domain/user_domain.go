package domain

import (
	"errors"
)

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login success"
	MessageSuccessGetMe            = "success get profile"
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessGetUserDetail    = "success get user detail"
	MessageSuccessUpdateAvatar     = "avatar updated successfully"
	MessageSuccessDeleteAvatar     = "avatar deleted successfully"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"
	MessageSuccessForgotPassword   = "password reset email sent"
	MessageSuccessResetPassword    = "password reset successfully"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetMe            = "failed to get profile"
	MessageFailedGetUsers         = "failed to get users"
	MessageFailedGetUserDetail    = "failed to get user detail"
	MessageFailedUpdateAvatar     = "failed to update avatar"
	MessageFailedDeleteAvatar     = "failed to delete avatar"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"
	MessageFailedForgotPassword   = "failed to send password reset email"
	MessageFailedResetPassword    = "failed to reset password"

	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUsernameTaken          = errors.New("username already taken")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrSelfSubscription       = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed      = errors.New("already subscribed to this author")
	ErrNotSubscribed          = errors.New("not subscribed to this author")
	ErrMissingAvatar          = errors.New("avatar image is required")
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8"`
	}

	RegisterResponse struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}

	UserResponse struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Avatar       string `json:"avatar,omitempty"`
		IsSubscribed bool   `json:"is_subscribed"`
	}

	UpdateAvatarRequest struct {
		// Base64-encoded image, optionally a data URL.
		Avatar string `json:"avatar" validate:"required"`
	}

	UpdateAvatarResponse struct {
		Avatar string `json:"avatar"`
	}

	// SubscriptionResponse is the author profile embedded in subscribe and
	// subscription-list responses.
	SubscriptionResponse struct {
		UserResponse
		Recipes      []ShortRecipeResponse `json:"recipes"`
		RecipesCount int64                 `json:"recipes_count"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}
)
