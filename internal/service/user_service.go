package service

import (
	"context"
	"strings"
	"time"

	"gatherly/internal/middleware"
	"gatherly/internal/models"
	"gatherly/internal/phone"
	"gatherly/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 7 * 24 * time.Hour

// UserService handles account lifecycle, authentication, contacts and push
// device registration.
type UserService struct {
	userRepo   repository.UserRepository
	deviceRepo repository.DeviceRepository
	friendSvc  *FriendService
}

// NewUserService returns a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	deviceRepo repository.DeviceRepository,
	friendSvc *FriendService,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		friendSvc:  friendSvc,
	}
}

// AuthResult bundles a user with a freshly issued token.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account, then auto-connects the new user with anyone
// who mutually holds their phone number. Auto-connect failures are logged,
// not surfaced: the account itself is already durable.
func (s *UserService) Register(ctx context.Context, name, email, rawPhone, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, models.NewValidationError("name, email and password are required")
	}
	if len(password) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, models.NewValidationError("invalid phone number")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:             name,
		Email:            email,
		Phone:            rawPhone,
		PhoneNormalized:  normalized,
		Password:         string(hash),
		RemindersEnabled: true,
		ReminderDays:     models.DefaultReminderDays,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if connected, err := s.friendSvc.AutoConnect(ctx, user); err != nil {
		middleware.Logger.WarnContext(ctx, "auto-connect failed",
			"user_id", user.ID, "error", err)
	} else if connected > 0 {
		middleware.Logger.InfoContext(ctx, "auto-connected new user",
			"user_id", user.ID, "connections", connected)
	}

	token, err := middleware.IssueToken(user.ID, tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by email and password.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	token, err := middleware.IssueToken(user.ID, tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetProfile returns the user's own account record.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateReminderSettings replaces the user's SMS reminder preferences.
func (s *UserService) UpdateReminderSettings(ctx context.Context, userID uint, enabled bool, days []string) (*models.User, error) {
	valid := map[string]struct{}{
		"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
		"friday": {}, "saturday": {}, "sunday": {},
	}
	cleaned := make([]string, 0, len(days))
	for _, day := range days {
		day = strings.ToLower(strings.TrimSpace(day))
		if _, ok := valid[day]; !ok {
			return nil, models.NewValidationError("invalid reminder day: " + day)
		}
		cleaned = append(cleaned, day)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.RemindersEnabled = enabled
	user.ReminderDays = cleaned
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ContactEntry is one imported address-book entry.
type ContactEntry struct {
	Name  string `json:"name"`
	Phone string `json:"phone_number"`
}

// ResolvedContact is a stored contact annotated with the matched platform
// user, if any. Matching is a single indexed lookup on the normalized phone.
type ResolvedContact struct {
	Contact models.Contact `json:"contact"`
	User    *models.User   `json:"user,omitempty"`
}

// ImportContacts stores the entries under the owner, skipping numbers that
// cannot be normalized. Re-imports update names in place.
func (s *UserService) ImportContacts(ctx context.Context, ownerID uint, entries []ContactEntry) (int, error) {
	imported := 0
	for _, entry := range entries {
		normalized, err := phone.Normalize(entry.Phone)
		if err != nil {
			continue
		}
		contact := &models.Contact{
			OwnerID:         ownerID,
			Name:            strings.TrimSpace(entry.Name),
			Phone:           entry.Phone,
			PhoneNormalized: normalized,
		}
		if err := s.userRepo.AddContact(ctx, contact); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// ListContacts returns the owner's contacts with platform matches resolved.
func (s *UserService) ListContacts(ctx context.Context, ownerID uint) ([]ResolvedContact, error) {
	contacts, err := s.userRepo.ListContacts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	resolved := make([]ResolvedContact, 0, len(contacts))
	for _, contact := range contacts {
		rc := ResolvedContact{Contact: contact}
		if match, err := s.userRepo.GetByNormalizedPhone(ctx, contact.PhoneNormalized); err == nil {
			rc.User = match
		}
		resolved = append(resolved, rc)
	}
	return resolved, nil
}

// DeleteContact removes one contact from the owner's address book.
func (s *UserService) DeleteContact(ctx context.Context, ownerID, contactID uint) error {
	return s.userRepo.DeleteContact(ctx, ownerID, contactID)
}

// RegisterDevice stores a push endpoint for the user.
func (s *UserService) RegisterDevice(ctx context.Context, userID uint, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return models.NewValidationError("endpoint is required")
	}
	return s.deviceRepo.Register(ctx, &models.PushDevice{UserID: userID, Endpoint: endpoint})
}

// RemoveDevice deletes one of the user's push endpoints.
func (s *UserService) RemoveDevice(ctx context.Context, userID uint, endpoint string) error {
	return s.deviceRepo.DeleteForUser(ctx, userID, endpoint)
}
