package apiv1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
)

const AuthServiceName = "dineout.v1.AuthService"

const (
	AuthServiceRegisterProcedure      = "/dineout.v1.AuthService/Register"
	AuthServiceLoginProcedure         = "/dineout.v1.AuthService/Login"
	AuthServiceGetProfileProcedure    = "/dineout.v1.AuthService/GetProfile"
	AuthServiceGetActivityProcedure   = "/dineout.v1.AuthService/GetActivity"
	AuthServiceUpdateProfileProcedure = "/dineout.v1.AuthService/UpdateProfile"
)

type User struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type GetProfileRequest struct{}

type ProfileStats struct {
	RatingsCount int    `json:"ratings_count"`
	ReviewsCount int    `json:"reviews_count"`
	FavoriteCity string `json:"favorite_city,omitempty"`
}

type GetProfileResponse struct {
	User  User         `json:"user"`
	Stats ProfileStats `json:"stats"`
}

type GetActivityRequest struct{}

// GetActivityResponse lists the caller's ratings and reviews, newest first.
type GetActivityResponse struct {
	Ratings []Rating `json:"ratings"`
	Reviews []Review `json:"reviews"`
}

// UpdateProfileRequest changes the fields that are set; absent fields are
// kept.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type UpdateProfileResponse struct {
	User User `json:"user"`
}

// AuthServiceHandler is implemented by the server.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetProfile(context.Context, *connect.Request[GetProfileRequest]) (*connect.Response[GetProfileResponse], error)
	GetActivity(context.Context, *connect.Request[GetActivityRequest]) (*connect.Response[GetActivityResponse], error)
	UpdateProfile(context.Context, *connect.Request[UpdateProfileRequest]) (*connect.Response[UpdateProfileResponse], error)
}

// NewAuthServiceHandler returns the mount path and handler for svc.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return "/" + AuthServiceName + "/", serviceHandler(map[string]*connect.Handler{
		AuthServiceRegisterProcedure:      unaryHandler(AuthServiceRegisterProcedure, svc.Register, opts),
		AuthServiceLoginProcedure:         unaryHandler(AuthServiceLoginProcedure, svc.Login, opts),
		AuthServiceGetProfileProcedure:    unaryHandler(AuthServiceGetProfileProcedure, svc.GetProfile, opts),
		AuthServiceGetActivityProcedure:   unaryHandler(AuthServiceGetActivityProcedure, svc.GetActivity, opts),
		AuthServiceUpdateProfileProcedure: unaryHandler(AuthServiceUpdateProfileProcedure, svc.UpdateProfile, opts),
	})
}

// AuthServiceClient is a client for dineout.v1.AuthService.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetProfile(context.Context, *connect.Request[GetProfileRequest]) (*connect.Response[GetProfileResponse], error)
	GetActivity(context.Context, *connect.Request[GetActivityRequest]) (*connect.Response[GetActivityResponse], error)
	UpdateProfile(context.Context, *connect.Request[UpdateProfileRequest]) (*connect.Response[UpdateProfileResponse], error)
}

type authServiceClient struct {
	register      *connect.Client[RegisterRequest, RegisterResponse]
	login         *connect.Client[LoginRequest, LoginResponse]
	getProfile    *connect.Client[GetProfileRequest, GetProfileResponse]
	getActivity   *connect.Client[GetActivityRequest, GetActivityResponse]
	updateProfile *connect.Client[UpdateProfileRequest, UpdateProfileResponse]
}

// NewAuthServiceClient constructs a client for the service at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &authServiceClient{
		register:      unaryClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts),
		login:         unaryClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts),
		getProfile:    unaryClient[GetProfileRequest, GetProfileResponse](httpClient, baseURL+AuthServiceGetProfileProcedure, opts),
		getActivity:   unaryClient[GetActivityRequest, GetActivityResponse](httpClient, baseURL+AuthServiceGetActivityProcedure, opts),
		updateProfile: unaryClient[UpdateProfileRequest, UpdateProfileResponse](httpClient, baseURL+AuthServiceUpdateProfileProcedure, opts),
	}
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) GetProfile(ctx context.Context, req *connect.Request[GetProfileRequest]) (*connect.Response[GetProfileResponse], error) {
	return c.getProfile.CallUnary(ctx, req)
}

func (c *authServiceClient) GetActivity(ctx context.Context, req *connect.Request[GetActivityRequest]) (*connect.Response[GetActivityResponse], error) {
	return c.getActivity.CallUnary(ctx, req)
}

func (c *authServiceClient) UpdateProfile(ctx context.Context, req *connect.Request[UpdateProfileRequest]) (*connect.Response[UpdateProfileResponse], error) {
	return c.updateProfile.CallUnary(ctx, req)
}
