// Package users owns accounts, their embedded addresses and wishlists.
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

type Service struct {
	users     store.UserStore
	orders    store.OrderStore
	products  store.ProductStore
	wishlists store.WishlistStore
	secret    []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(st *store.Store, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		users:     st.Users,
		orders:    st.Orders,
		products:  st.Products,
		wishlists: st.Wishlists,
		secret:    []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.Named("users"),
		now:       time.Now,
		newID:     newAddressID,
	}
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`

	// CustomerType defaults to B2C. B2B accounts wait for admin approval
	// before they can request quotations.
	CustomerType    string                  `json:"customerType"`
	BusinessDetails *models.BusinessDetails `json:"businessDetails"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Session is returned by register and login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := s.createAccount(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *Service) createAccount(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	var details []string
	if name == "" {
		details = append(details, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		details = append(details, "email is invalid")
	}
	if len(in.Password) < 6 {
		details = append(details, "password must be at least 6 characters")
	}
	customerType := strings.ToUpper(strings.TrimSpace(in.CustomerType))
	switch customerType {
	case "":
		customerType = models.CustomerB2C
	case models.CustomerB2C:
	case models.CustomerB2B:
		if strings.TrimSpace(in.Company) == "" {
			details = append(details, "company is required for business accounts")
		}
	default:
		details = append(details, "customerType must be B2C or B2B")
	}
	if len(details) > 0 {
		return nil, apperr.Validation("validation failed", details...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	now := s.now().UTC()
	user := &models.User{
		Name:           name,
		Email:          email,
		Phone:          strings.TrimSpace(in.Phone),
		Company:        strings.TrimSpace(in.Company),
		PasswordHash:   string(hash),
		Role:           role,
		CustomerType:   customerType,
		ApprovalStatus: models.ApprovalApproved,
		Addresses:      []models.Address{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if customerType == models.CustomerB2B {
		user.ApprovalStatus = models.ApprovalPending
		if in.BusinessDetails != nil {
			business := *in.BusinessDetails
			user.Business = &business
		}
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Internal(err, "create user")
	}
	s.logger.Info("user registered", zap.String("user", user.ID.Hex()), zap.String("role", role))
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if _, err := s.users.GetByEmail(ctx, normalizeEmail(email)); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	_, err := s.createAccount(ctx, RegisterInput{Name: "Administrator", Email: email, Password: password}, models.RoleAdmin)
	if apperr.Is(err, apperr.KindConflict) {
		return nil
	}
	return err
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		s.logger.Debug("login rejected", zap.String("user", user.ID.Hex()))
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return s.session(user)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return nil, apperr.Internal(err, "token generation failed")
	}
	return &Session{Token: token, ExpiresIn: int64(s.tokenTTL.Seconds()), User: user}, nil
}

func (s *Service) issueToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"role":   user.Role,
		"email":  user.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	return user, nil
}

type ProfileInput struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func (s *Service) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*models.User, error) {
	patch := store.ProfilePatch{
		Name:      trimmed(in.Name),
		Phone:     trimmed(in.Phone),
		Company:   trimmed(in.Company),
		UpdatedAt: s.now().UTC(),
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, apperr.Validation("validation failed", "name must not be empty")
	}
	user, err := s.users.UpdateProfile(ctx, userID, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "update profile")
	}
	return user, nil
}

func (s *Service) CountCustomers(ctx context.Context) (int64, error) {
	return s.users.CountByRole(ctx, models.RoleUser)
}
