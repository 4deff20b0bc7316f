package transport

import (
	"errors"
	"net/http"

	"catalog-sync/internal/middleware"
	"catalog-sync/internal/repository"
	"catalog-sync/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateUserRequest represents the account creation payload
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"required,oneof=reporter admin"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// UserProfile represents user profile data
type UserProfile struct {
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
	Role     string  `json:"role"`
}

// UserHandler handles HTTP requests for login and account management
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the login route and the admin-only account routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/api/auth/login", h.Login)

	r.Route("/api/users", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/me", h.GetProfile)
		r.With(middleware.RequireAdmin(h.logger)).Post("/", h.CreateUser)
	})
}

// Login exchanges credentials for a signed access token
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusUnauthorized, "Username and password are required")
		return
	}

	accessToken, user, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login rejected", zap.String("username", req.Username))
			middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("User logged in", zap.String("username", user.Username))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{AccessToken: accessToken})
}

// CreateUser creates a report account
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Create user validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	user, err := h.userService.CreateUser(r.Context(), req.Username, req.Password, email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, "user with this username already exists")
		case errors.Is(err, service.ErrInvalidRole):
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid role")
		default:
			h.logger.Error("Failed to create user", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	h.logger.Info("User created", zap.String("username", user.Username), zap.String("role", user.Role))
	middleware.RespondWithJSON(w, http.StatusCreated, UserProfile{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}

// GetProfile returns the identity carried by the caller's token
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsername(r.Context())
	if !ok {
		h.logger.Error("Username not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	middleware.RespondWithJSON(w, http.StatusOK, UserProfile{
		Username: username,
		Role:     role,
	})
}
