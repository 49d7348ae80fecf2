package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) CountUsersByRole(ctx context.Context, role models.Role) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

// MockTechnicianCollection is a mock implementation of TechnicianCollection
type MockTechnicianCollection struct {
	mock.Mock
}

func (m *MockTechnicianCollection) InsertTechnician(ctx context.Context, technician models.Technician) error {
	args := m.Called(ctx, technician)
	return args.Error(0)
}

func (m *MockTechnicianCollection) FindTechnicians(ctx context.Context) ([]models.Technician, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Technician), args.Error(1)
}

func (m *MockTechnicianCollection) FindTechnicianByID(ctx context.Context, id string) (*models.Technician, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Technician), args.Error(1)
}

func (m *MockTechnicianCollection) SetActiveTaskCounts(ctx context.Context, counts map[string]int) error {
	args := m.Called(ctx, counts)
	return args.Error(0)
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestAuthHandler_Login(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)
	passwordHash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	newUser := func(active bool) *models.User {
		return &models.User{
			ID:           primitive.NewObjectID(),
			Username:     "jmartinez",
			Email:        "j.martinez@logistics.com",
			PasswordHash: passwordHash,
			Role:         models.RoleTechnician,
			TechnicianID: "TECH-001",
			IsActive:     active,
		}
	}

	t.Run("successful login", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, db.UserCollection(mockUserCollection), nil)
		user := newUser(true)
		mockUserCollection.On("FindUserByUsername", mock.Anything, "jmartinez").Return(user, nil)
		mockUserCollection.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "jmartinez", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.RefreshToken)
		assert.Equal(t, "TECH-001", response.User.TechnicianID)

		claims, err := authService.ValidateToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, "TECH-001", claims.TechnicianID)
		mockUserCollection.AssertExpectations(t)
	})

	t.Run("last login failure does not block login", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, nil)
		user := newUser(true)
		mockUserCollection.On("FindUserByUsername", mock.Anything, "jmartinez").Return(user, nil)
		mockUserCollection.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(assert.AnError)

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "jmartinez", Password: "password123"})))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, nil)
		mockUserCollection.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, assert.AnError)

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "ghost", Password: "password123"})))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, nil)
		mockUserCollection.On("FindUserByUsername", mock.Anything, "jmartinez").Return(newUser(true), nil)

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "jmartinez", Password: "wrongpassword"})))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUserCollection.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
	})

	t.Run("inactive user", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, nil)
		mockUserCollection.On("FindUserByUsername", mock.Anything, "jmartinez").Return(newUser(false), nil)

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "jmartinez", Password: "password123"})))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "deactivated")
	})

	t.Run("missing fields and bad method", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), nil)

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "jmartinez"})))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json")))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)

	validRequest := func() models.RegisterRequest {
		return models.RegisterRequest{
			Username:     "schen",
			Email:        "s.chen@logistics.com",
			Password:     "password123",
			FirstName:    "Sarah",
			LastName:     "Chen",
			Role:         models.RoleTechnician,
			TechnicianID: "TECH-002",
		}
	}
	adminRequest := func() models.RegisterRequest {
		req := validRequest()
		req.Role = models.RoleAdmin
		return req
	}
	registerRequest := func(t *testing.T, req models.RegisterRequest) *http.Request {
		return httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, req))
	}
	bearer := func(t *testing.T, role models.Role) string {
		token, err := authService.GenerateToken(&models.User{ID: primitive.NewObjectID(), Username: "existing", Role: role, TechnicianID: "TECH-001"})
		require.NoError(t, err)
		return "Bearer " + token
	}
	knownTechnician := func() *MockTechnicianCollection {
		technicians := new(MockTechnicianCollection)
		technicians.On("FindTechnicianByID", mock.Anything, "TECH-002").Return(&models.Technician{ID: "TECH-002"}, nil)
		return technicians
	}
	freshAccount := func() *MockUserCollection {
		users := new(MockUserCollection)
		users.On("FindUserByUsername", mock.Anything, "schen").Return(nil, db.ErrNotFound)
		users.On("FindUserByEmail", mock.Anything, "s.chen@logistics.com").Return(nil, db.ErrNotFound)
		return users
	}

	t.Run("successful registration", func(t *testing.T) {
		mockUserCollection := freshAccount()
		technicians := knownTechnician()
		handler := NewAuthHandler(authService, mockUserCollection, technicians)
		mockUserCollection.On("InsertUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
			return user.Username == "schen" &&
				user.TechnicianID == "TECH-002" &&
				user.PasswordHash != "" &&
				user.PasswordHash != "password123"
		})).Return(nil)

		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, validRequest()))

		assert.Equal(t, http.StatusCreated, w.Code)
		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.Token)
		mockUserCollection.AssertExpectations(t)
		technicians.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		mutate func(req *models.RegisterRequest)
	}{
		{"invalid role", func(req *models.RegisterRequest) { req.Role = "dispatcher" }},
		{"technician without record", func(req *models.RegisterRequest) { req.TechnicianID = "" }},
		{"bad email", func(req *models.RegisterRequest) { req.Email = "not-an-email" }},
		{"short password", func(req *models.RegisterRequest) { req.Password = "short" }},
		{"short username", func(req *models.RegisterRequest) { req.Username = "ab" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserCollection := new(MockUserCollection)
			handler := NewAuthHandler(authService, mockUserCollection, new(MockTechnicianCollection))
			req := validRequest()
			tt.mutate(&req)

			w := httptest.NewRecorder()
			handler.Register(w, registerRequest(t, req))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockUserCollection.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
		})
	}

	t.Run("unknown technician id", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		technicians := new(MockTechnicianCollection)
		technicians.On("FindTechnicianByID", mock.Anything, "NO-SUCH-TECH").Return(nil, db.ErrNotFound)
		handler := NewAuthHandler(authService, mockUserCollection, technicians)

		req := validRequest()
		req.TechnicianID = "NO-SUCH-TECH"
		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, req))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUserCollection.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("technician lookup failure", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		technicians := new(MockTechnicianCollection)
		technicians.On("FindTechnicianByID", mock.Anything, "TECH-002").Return(nil, assert.AnError)
		handler := NewAuthHandler(authService, mockUserCollection, technicians)

		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, validRequest()))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})

	t.Run("technician already linked to an account", func(t *testing.T) {
		mockUserCollection := freshAccount()
		duplicate := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
		mockUserCollection.On("InsertUser", mock.Anything, mock.Anything).Return(duplicate)
		handler := NewAuthHandler(authService, mockUserCollection, knownTechnician())

		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, validRequest()))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("first admin bootstraps without a token", func(t *testing.T) {
		mockUserCollection := freshAccount()
		mockUserCollection.On("CountUsersByRole", mock.Anything, models.RoleAdmin).Return(int64(0), nil)
		mockUserCollection.On("InsertUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
			return user.Role == models.RoleAdmin && user.TechnicianID == ""
		})).Return(nil)
		technicians := new(MockTechnicianCollection)
		handler := NewAuthHandler(authService, mockUserCollection, technicians)

		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, adminRequest()))

		assert.Equal(t, http.StatusCreated, w.Code)
		mockUserCollection.AssertExpectations(t)
		technicians.AssertNotCalled(t, "FindTechnicianByID", mock.Anything, mock.Anything)
	})

	t.Run("admin self registration rejected once an admin exists", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		mockUserCollection.On("CountUsersByRole", mock.Anything, models.RoleAdmin).Return(int64(1), nil)
		handler := NewAuthHandler(authService, mockUserCollection, nil)

		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, adminRequest()))

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUserCollection.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("admin creates another admin", func(t *testing.T) {
		mockUserCollection := freshAccount()
		mockUserCollection.On("InsertUser", mock.Anything, mock.Anything).Return(nil)
		handler := NewAuthHandler(authService, mockUserCollection, nil)

		req := registerRequest(t, adminRequest())
		req.Header.Set("Authorization", bearer(t, models.RoleAdmin))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockUserCollection.AssertNotCalled(t, "CountUsersByRole", mock.Anything, mock.Anything)
	})

	t.Run("technician cannot create an admin", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, nil)

		req := registerRequest(t, adminRequest())
		req.Header.Set("Authorization", bearer(t, models.RoleTechnician))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUserCollection.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("invalid admin token", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), nil)

		req := registerRequest(t, adminRequest())
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("username taken", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, knownTechnician())
		mockUserCollection.On("FindUserByUsername", mock.Anything, "schen").Return(&models.User{Username: "schen"}, nil)

		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, validRequest()))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("email taken", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, knownTechnician())
		mockUserCollection.On("FindUserByUsername", mock.Anything, "schen").Return(nil, db.ErrNotFound)
		mockUserCollection.On("FindUserByEmail", mock.Anything, "s.chen@logistics.com").Return(&models.User{}, nil)

		w := httptest.NewRecorder()
		handler.Register(w, registerRequest(t, validRequest()))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)

	t.Run("returns the current user", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, nil)
		userID := primitive.NewObjectID()
		user := &models.User{ID: userID, Username: "admin", Role: models.RoleAdmin, PasswordHash: "secret-hash"}
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), &models.Claims{UserID: userID.Hex(), Role: models.RoleAdmin}))
		w := httptest.NewRecorder()
		handler.GetProfile(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"admin"`)
		assert.NotContains(t, w.Body.String(), "secret-hash")
	})

	t.Run("missing user context", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), nil)

		w := httptest.NewRecorder()
		handler.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user deleted", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection, nil)
		mockUserCollection.On("FindUserByID", mock.Anything, "gone").Return(nil, db.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), &models.Claims{UserID: "gone"}))
		w := httptest.NewRecorder()
		handler.GetProfile(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
