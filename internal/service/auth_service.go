package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/internal/auth"
	"github.com/mmynk/dineout/internal/middleware"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/registry"
	"github.com/mmynk/dineout/internal/storage"
	"github.com/mmynk/dineout/pkg/apiv1"
)

var _ apiv1.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[apiv1.RegisterRequest]) (*connect.Response[apiv1.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.Username, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, apiv1.NewValidationError("password", err.Error(), err)
		case errors.Is(err, auth.ErrMissingFields):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&apiv1.RegisterResponse{User: userToAPI(user), Token: token}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[apiv1.LoginRequest]) (*connect.Response[apiv1.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&apiv1.LoginResponse{User: userToAPI(user), Token: token}), nil
}

// GetProfile returns the caller's account and activity summary.
func (s *AuthService) GetProfile(ctx context.Context, req *connect.Request[apiv1.GetProfileRequest]) (*connect.Response[apiv1.GetProfileResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load user", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	if user == nil {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("user not found"))
	}

	stats, err := s.users.GetUserStats(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load user stats", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&apiv1.GetProfileResponse{
		User: userToAPI(user),
		Stats: apiv1.ProfileStats{
			RatingsCount: stats.RatingsCount,
			ReviewsCount: stats.ReviewsCount,
			FavoriteCity: stats.FavoriteCity,
		},
	}), nil
}

// GetActivity returns the caller's ratings and reviews with restaurant
// names, newest first.
func (s *AuthService) GetActivity(ctx context.Context, req *connect.Request[apiv1.GetActivityRequest]) (*connect.Response[apiv1.GetActivityResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	activity, err := s.users.GetUserActivity(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load activity", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &apiv1.GetActivityResponse{
		Ratings: make([]apiv1.Rating, 0, len(activity.Ratings)),
		Reviews: make([]apiv1.Review, 0, len(activity.Reviews)),
	}
	for _, r := range activity.Ratings {
		resp.Ratings = append(resp.Ratings, ratingToAPI(r))
	}
	for _, r := range activity.Reviews {
		resp.Reviews = append(resp.Reviews, reviewToAPI(r))
	}
	return connect.NewResponse(resp), nil
}

// UpdateProfile changes the caller's username and/or email. An email that
// belongs to another account is rejected with CodeAlreadyExists.
func (s *AuthService) UpdateProfile(ctx context.Context, req *connect.Request[apiv1.UpdateProfileRequest]) (*connect.Response[apiv1.UpdateProfileResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var upd models.ProfileUpdate
	if req.Msg.Username != nil {
		username := strings.TrimSpace(*req.Msg.Username)
		if username == "" {
			return nil, apiv1.NewValidationError("username", "must not be empty", registry.ErrValidation)
		}
		upd.Username = &username
	}
	if req.Msg.Email != nil {
		email := auth.NormalizeEmail(*req.Msg.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, apiv1.NewValidationError("email", "must be a valid address", registry.ErrValidation)
		}
		upd.Email = &email
	}
	if upd.Username == nil && upd.Email == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("no profile fields to update"))
	}

	user, err := s.users.UpdateUser(ctx, userID, upd)
	if err != nil {
		s.logger.Warn("Profile update failed", "user_id", userID, "error", err)
		if errors.Is(err, storage.ErrConflict) {
			return nil, connect.NewError(connect.CodeAlreadyExists, auth.ErrEmailExists)
		}
		return nil, toConnectError(err)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return connect.NewResponse(&apiv1.UpdateProfileResponse{User: userToAPI(user)}), nil
}
