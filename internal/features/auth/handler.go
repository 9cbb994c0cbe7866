package auth

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecoloop-app/ecoloop-backend/internal/config"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/cloudinary"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/jwt"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
)

// Handler handles authentication endpoints
type Handler struct {
	repo       *Repository
	cfg        *config.Config
	cloudinary *cloudinary.Service
}

// NewHandler creates a new auth handler
func NewHandler(repo *Repository, cfg *config.Config, cld *cloudinary.Service) *Handler {
	return &Handler{repo: repo, cfg: cfg, cloudinary: cld}
}

// Register godoc
// @Summary Register with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	req.Username = NormalizeUsername(req.Username)
	if err := ValidateUsername(req.Username); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	existing, err := h.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		logger.Error("Failed to check existing email: %v", err)
		response.InternalServerError(c, "Failed to register")
		return
	}
	if existing != nil {
		response.Conflict(c, "An account with this email already exists", "EMAIL_TAKEN")
		return
	}

	taken, err := h.repo.UsernameExists(ctx, req.Username)
	if err != nil {
		logger.Error("Failed to check username: %v", err)
		response.InternalServerError(c, "Failed to register")
		return
	}
	if taken {
		response.Conflict(c, "Username is already taken", "USERNAME_TAKEN")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password: %v", err)
		response.InternalServerError(c, "Failed to register")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user := &User{
		Email:       req.Email,
		Password:    string(hash),
		Username:    req.Username,
		DisplayName: displayName,
	}

	if err := h.repo.CreateUser(ctx, user); err != nil {
		logger.Error("Failed to create user: %v", err)
		response.Conflict(c, "Account could not be created", "USER_CREATE_FAILED")
		return
	}

	h.respondWithToken(c, user, true)
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	user, err := h.repo.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		logger.Error("Failed to look up user: %v", err)
		response.InternalServerError(c, "Failed to login")
		return
	}
	if user == nil || user.Password == "" {
		response.Unauthorized(c, "Invalid email or password", "INVALID_CREDENTIALS")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		response.Unauthorized(c, "Invalid email or password", "INVALID_CREDENTIALS")
		return
	}

	h.respondWithToken(c, user, false)
}

// GoogleAuth godoc
// @Summary Sign in with a Google ID token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GoogleAuthRequest true "Google auth payload"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/google [post]
func (h *Handler) GoogleAuth(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	claims, err := VerifyGoogleToken(ctx, req.GoogleIDToken, h.cfg.GoogleClientID)
	if err != nil {
		logger.Warn("Google token verification failed: %v", err)
		response.Unauthorized(c, "Invalid Google token", "GOOGLE_TOKEN_INVALID")
		return
	}

	user, err := h.repo.GetUserByGoogleID(ctx, claims.GoogleID)
	if err != nil {
		logger.Error("Failed to look up google user: %v", err)
		response.InternalServerError(c, "Failed to login")
		return
	}

	if user == nil {
		// Link by email if an email/password account already exists
		user, err = h.repo.GetUserByEmail(ctx, claims.Email)
		if err != nil {
			logger.Error("Failed to look up user by email: %v", err)
			response.InternalServerError(c, "Failed to login")
			return
		}

		if user != nil {
			if err := h.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"googleId": claims.GoogleID}); err != nil {
				logger.Error("Failed to link google account: %v", err)
				response.InternalServerError(c, "Failed to login")
				return
			}
			user.GoogleID = claims.GoogleID
		} else {
			user = &User{
				GoogleID:          claims.GoogleID,
				Email:             claims.Email,
				Username:          generateUsernameFromEmail(claims.Email),
				DisplayName:       claims.Name,
				ProfilePictureURL: claims.Picture,
			}
			if err := h.repo.CreateUser(ctx, user); err != nil {
				logger.Error("Failed to create google user: %v", err)
				response.InternalServerError(c, "Failed to login")
				return
			}
		}
	}

	h.respondWithToken(c, user, false)
}

// Me godoc
// @Summary Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	response.Success(c, user)
}

// UpdateProfile godoc
// @Summary Update display name and bio
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/me [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != "" {
		updates["displayName"] = req.DisplayName
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}

	if len(updates) == 0 {
		response.BadRequest(c, "No fields to update", "NO_UPDATES")
		return
	}

	if err := h.repo.UpdateUser(c.Request.Context(), user.ID, updates); err != nil {
		logger.Error("Failed to update profile for %s: %v", user.ID.Hex(), err)
		response.InternalServerError(c, "Failed to update profile")
		return
	}

	updated, err := h.repo.GetUserByID(c.Request.Context(), user.ID.Hex())
	if err != nil {
		response.InternalServerError(c, "Failed to load updated profile")
		return
	}

	response.Success(c, updated)
}

// UploadProfilePicture godoc
// @Summary Upload a profile picture
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Profile picture"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/me/picture [post]
func (h *Handler) UploadProfilePicture(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	if h.cloudinary == nil {
		response.ServiceUnavailable(c, "Image uploads are not configured")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "Image file is required", "IMAGE_REQUIRED")
		return
	}

	if err := cloudinary.ValidateImageFile(fileHeader); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "Failed to read image file", "IMAGE_READ_FAILED")
		return
	}
	defer file.Close()

	result, err := h.cloudinary.UploadProfilePicture(c.Request.Context(), file)
	if err != nil {
		logger.Error("Profile picture upload failed for %s: %v", user.ID.Hex(), err)
		response.InternalServerError(c, "Failed to upload image")
		return
	}

	if err := h.repo.UpdateUser(c.Request.Context(), user.ID, map[string]interface{}{
		"profilePictureUrl": result.URL,
	}); err != nil {
		logger.Error("Failed to store profile picture url: %v", err)
		response.InternalServerError(c, "Failed to update profile")
		return
	}

	response.Success(c, gin.H{"profilePictureUrl": result.URL})
}

// UpdateFCMToken godoc
// @Summary Register a device token for push notifications
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateFCMTokenRequest true "Device token"
// @Success 200 {object} response.APIResponse
// @Router /auth/fcm-token [put]
func (h *Handler) UpdateFCMToken(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "UNAUTHORIZED")
		return
	}

	var req UpdateFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.repo.UpdateUser(c.Request.Context(), user.ID, map[string]interface{}{
		"fcmToken": req.FCMToken,
	}); err != nil {
		logger.Error("Failed to store fcm token: %v", err)
		response.InternalServerError(c, "Failed to update device token")
		return
	}

	response.Success(c, gin.H{"updated": true})
}

func (h *Handler) respondWithToken(c *gin.Context, user *User, created bool) {
	jwtCfg := jwt.DefaultConfig(h.cfg.JWTSecret)
	if hours, err := strconv.Atoi(h.cfg.JWTExpire); err == nil && hours > 0 {
		jwtCfg.AccessExpiry = time.Duration(hours) * time.Hour
	}

	token, err := jwt.GenerateToken(user.ID.Hex(), user.Email, jwtCfg)
	if err != nil {
		logger.Error("Failed to generate token: %v", err)
		response.InternalServerError(c, "Failed to issue token")
		return
	}

	payload := &AuthResponse{User: user, AccessToken: token}
	if created {
		response.Created(c, payload)
		return
	}
	response.Success(c, payload)
}

func generateUsernameFromEmail(email string) string {
	base := email
	for i, ch := range email {
		if ch == '@' {
			base = email[:i]
			break
		}
	}
	base = NormalizeUsername(base)
	if len(base) < 3 {
		base = base + "_eco"
	}
	if len(base) > 14 {
		base = base[:14]
	}
	// Suffix keeps collisions unlikely; the unique index catches the rest
	return base + "_" + randomSuffix(5)
}
