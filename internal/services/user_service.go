package services

import (
	"context"
	"crowdx-backend/internal/apperr"
	"crowdx-backend/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	userCacheTTL      = time.Hour
	minPasswordLength = 8
	maxUsernameLength = 150
	maxPhoneLength    = 20
)

// UserService owns the users table and its redis cache.
type UserService struct {
	db    *gorm.DB
	cache *redis.Client
	log   *zap.Logger

	// HashCost is the bcrypt cost used for new password hashes.
	HashCost int
}

func NewUserService(db *gorm.DB, cache *redis.Client, log *zap.Logger) *UserService {
	return &UserService{db: db, cache: cache, log: log, HashCost: bcrypt.DefaultCost}
}

type RegisterInput struct {
	Username    string
	Password    string
	Email       string
	PhoneNumber *string
	FirstName   string
	LastName    string
}

// ProfileUpdate carries the optional profile changes. Version, when set,
// must match the stored version.
type ProfileUpdate struct {
	Email       *string
	PhoneNumber *string
	FirstName   *string
	LastName    *string
	Version     *int
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, apperr.Validation("username must be at most %d characters", maxUsernameLength)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var existing models.User
	err = db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("a user with that username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.HashCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    username,
		Email:       strings.TrimSpace(in.Email),
		Password:    string(hashed),
		PhoneNumber: phone,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		IsActive:    true,
		Version:     1,
	}
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("a user with that username already exists")
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// FindByID resolves a user, serving from the redis cache when possible.
// Cached users carry no password hash.
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	cacheKey := userCacheKey(id)
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return &user, nil
			}
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, userCacheTTL).Err(); err != nil {
				s.log.Warn("user cache write failed", zap.Uint("user_id", id), zap.Error(err))
			}
		}
	}

	return &user, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks a username/password pair. Unknown users, inactive
// users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// TouchLastLogin stamps last_login without bumping the profile version.
func (s *UserService) TouchLastLogin(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login", now).Error
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// UpdateProfile applies the non-nil fields of upd under an optimistic lock
// on the version column.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, upd ProfileUpdate) (*models.User, error) {
	updates := make(map[string]interface{})
	if upd.Email != nil {
		if err := validateEmail(*upd.Email); err != nil {
			return nil, err
		}
		updates["email"] = strings.TrimSpace(*upd.Email)
	}
	if upd.PhoneNumber != nil {
		phone, err := normalizePhone(upd.PhoneNumber)
		if err != nil {
			return nil, err
		}
		updates["phone_number"] = phone
	}
	if upd.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*upd.LastName)
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user")
			}
			return err
		}

		currentVersion := user.Version
		if upd.Version != nil && *upd.Version != currentVersion {
			return apperr.Conflict("profile has been modified, please refresh and try again")
		}
		updates["version"] = currentVersion + 1

		result := tx.Model(&user).Where("version = ?", currentVersion).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.Conflict("profile has been modified, please refresh and try again")
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return &user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user")
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperr.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.HashCost)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password": string(hashed),
		"version":  user.Version + 1,
	}).Error
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.log.Info("password changed", zap.Uint("user_id", id))
	return nil
}

// Delete removes a user together with the campaigns they created and those
// campaigns' entries. Entries the user made on other campaigns survive with
// no creator.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaignIDs []uint
		if err := tx.Model(&models.Campaign{}).Where("creator_id = ?", id).Pluck("id", &campaignIDs).Error; err != nil {
			return err
		}
		if len(campaignIDs) > 0 {
			if err := tx.Where("campaign_id IN ?", campaignIDs).Delete(&models.CampaignEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", campaignIDs).Delete(&models.Campaign{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.CampaignEntry{}).Where("creator_id = ?", id).Update("creator_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("user")
		}
		s.log.Info("user deleted", zap.Uint("user_id", id), zap.Int("campaigns_removed", len(campaignIDs)))
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

// EnsureSuperuser creates the bootstrap administrator if it does not exist.
func (s *UserService) EnsureSuperuser(ctx context.Context, username, password string) (bool, error) {
	if _, err := s.FindByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}

	user, err := s.Register(ctx, RegisterInput{Username: username, Password: password})
	if err != nil {
		return false, err
	}
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"is_staff":     true,
		"is_superuser": true,
	}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, userCacheKey(id)).Err(); err != nil {
		s.log.Warn("user cache invalidation failed", zap.Uint("user_id", id), zap.Error(err))
	}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("email is not a valid address")
	}
	return nil
}

// normalizePhone trims the number and maps blank to nil.
func normalizePhone(phone *string) (*string, error) {
	if phone == nil {
		return nil, nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(p) > maxPhoneLength {
		return nil, apperr.Validation("phone_number must be at most %d characters", maxPhoneLength)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
