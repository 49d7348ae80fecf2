package handlers

import (
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService          *auth.Service
	userCollection       db.UserCollection
	technicianCollection db.TechnicianCollection
}

// NewAuthHandler creates a new authentication handler. Technician accounts
// are checked against technicianCollection before they are created.
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, technicianCollection db.TechnicianCollection) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		userCollection:       userCollection,
		technicianCollection: technicianCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var loginReq models.LoginRequest
	if err := decodeJSON(r, &loginReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if loginReq.Username == "" || loginReq.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Authenticate(user, loginReq.Password); err != nil {
		if errors.Is(err, auth.ErrUserInactive) {
			http.Error(w, "Account is deactivated", http.StatusUnauthorized)
			return
		}
		log.WithField("username", loginReq.Username).Info("Failed login attempt")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	response, err := h.issueTokens(user)
	if err != nil {
		log.WithError(err).Error("Failed to issue tokens")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, response)
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var registerReq models.RegisterRequest
	if err := decodeJSON(r, &registerReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateStruct(registerReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ValidateUsername(registerReq.Username); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch registerReq.Role {
	case models.RoleAdmin:
		if status, msg := h.authorizeAdminRegistration(r); status != http.StatusOK {
			http.Error(w, msg, status)
			return
		}
	case models.RoleTechnician:
		if _, err := h.technicianCollection.FindTechnicianByID(r.Context(), registerReq.TechnicianID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				http.Error(w, "Unknown technician id", http.StatusBadRequest)
				return
			}
			log.WithError(err).WithField("technician_id", registerReq.TechnicianID).Error("Failed to look up technician")
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
	}

	if _, err := h.userCollection.FindUserByUsername(r.Context(), registerReq.Username); err == nil {
		http.Error(w, "Username already exists", http.StatusConflict)
		return
	}
	if _, err := h.userCollection.FindUserByEmail(r.Context(), registerReq.Email); err == nil {
		http.Error(w, "Email already exists", http.StatusConflict)
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
		Role:         registerReq.Role,
		FirstName:    registerReq.FirstName,
		LastName:     registerReq.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Role == models.RoleTechnician {
		user.TechnicianID = registerReq.TechnicianID
	}

	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			http.Error(w, "Account already exists for this user or technician", http.StatusConflict)
			return
		}
		log.WithError(err).WithField("username", user.Username).Error("Failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	response, err := h.issueTokens(&user)
	if err != nil {
		log.WithError(err).Error("Failed to issue tokens")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"username": user.Username, "role": user.Role}).Info("Registered user")
	writeJSON(w, http.StatusCreated, response)
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// authorizeAdminRegistration allows an admin account to be created by an
// authenticated admin, or by anyone while no admin exists yet.
func (h *AuthHandler) authorizeAdminRegistration(r *http.Request) (int, string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token, err := h.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return http.StatusUnauthorized, "Invalid token"
		}
		claims, err := h.authService.ValidateToken(token)
		if err != nil {
			return http.StatusUnauthorized, "Invalid token"
		}
		if claims.Role != models.RoleAdmin {
			return http.StatusForbidden, "Only admins can create admin accounts"
		}
		return http.StatusOK, ""
	}

	admins, err := h.userCollection.CountUsersByRole(r.Context(), models.RoleAdmin)
	if err != nil {
		log.WithError(err).Error("Failed to count admin accounts")
		return http.StatusInternalServerError, "Failed to create user"
	}
	if admins > 0 {
		return http.StatusForbidden, "Only admins can create admin accounts"
	}
	return http.StatusOK, ""
}

func (h *AuthHandler) issueTokens(user *models.User) (models.LoginResponse, error) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return models.LoginResponse{}, err
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{Token: token, RefreshToken: refreshToken, User: *user}, nil
}
