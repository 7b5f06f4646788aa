package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

func newAddressID() string {
	return uuid.NewString()
}

type AddressInput struct {
	Label      string `json:"label"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"isDefault"`
}

func (in AddressInput) apply(a *models.Address) error {
	a.Label = strings.TrimSpace(in.Label)
	a.Line1 = strings.TrimSpace(in.Line1)
	a.Line2 = strings.TrimSpace(in.Line2)
	a.City = strings.TrimSpace(in.City)
	a.State = strings.TrimSpace(in.State)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.Country = strings.TrimSpace(in.Country)
	a.Phone = strings.TrimSpace(in.Phone)
	if a.Country == "" {
		a.Country = "India"
	}
	if a.Label == "" {
		a.Label = "Home"
	}

	var details []string
	for field, value := range map[string]string{
		"line1": a.Line1, "city": a.City, "state": a.State, "postalCode": a.PostalCode,
	} {
		if value == "" {
			details = append(details, field+" is required")
		}
	}
	if len(details) > 0 {
		return apperr.Validation("validation failed", details...)
	}
	return nil
}

// markDefault leaves exactly one default when the list is not empty.
// preferred wins when set; otherwise the current default, else the first.
func markDefault(addresses []models.Address, preferred string) {
	if len(addresses) == 0 {
		return
	}
	target := preferred
	if target == "" {
		for _, a := range addresses {
			if a.IsDefault {
				target = a.ID
				break
			}
		}
	}
	if target == "" {
		target = addresses[0].ID
	}
	for i := range addresses {
		addresses[i].IsDefault = addresses[i].ID == target
	}
}

func indexOf(addresses []models.Address, id string) int {
	for i, a := range addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) Addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Addresses == nil {
		return []models.Address{}, nil
	}
	return user.Addresses, nil
}

// editAddresses applies edit to a fresh copy of the address book and saves
// it conditionally on the version it was read at, retrying lost races.
func (s *Service) editAddresses(ctx context.Context, userID primitive.ObjectID, edit func([]models.Address) ([]models.Address, error)) ([]models.Address, error) {
	var saved []models.Address
	err := store.RetryOnConflict(ctx, func(ctx context.Context) error {
		user, err := s.Me(ctx, userID)
		if err != nil {
			return err
		}
		addresses, err := edit(user.Addresses)
		if err != nil {
			return err
		}
		if err := s.users.SaveAddresses(ctx, userID, user.Version, addresses); err != nil {
			return err
		}
		saved = addresses
		return nil
	})
	var appErr *apperr.Error
	switch {
	case err == nil:
		return saved, nil
	case errors.As(err, &appErr):
		return nil, err
	case errors.Is(err, store.ErrVersionConflict):
		return nil, apperr.Conflict("addresses were modified by another request, please retry")
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("user not found")
	default:
		return nil, apperr.Internal(err, "save addresses")
	}
}

func (s *Service) AddAddress(ctx context.Context, userID primitive.ObjectID, in AddressInput) (*models.Address, error) {
	address := models.Address{ID: s.newID()}
	if err := in.apply(&address); err != nil {
		return nil, err
	}
	preferred := ""
	if in.IsDefault {
		preferred = address.ID
	}
	addresses, err := s.editAddresses(ctx, userID, func(current []models.Address) ([]models.Address, error) {
		next := append(current[:len(current):len(current)], address)
		markDefault(next, preferred)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("address added", zap.String("user", userID.Hex()), zap.String("address", address.ID))
	added := addresses[len(addresses)-1]
	return &added, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID primitive.ObjectID, addressID string, in AddressInput) (*models.Address, error) {
	preferred := ""
	if in.IsDefault {
		preferred = addressID
	}
	var i int
	addresses, err := s.editAddresses(ctx, userID, func(current []models.Address) ([]models.Address, error) {
		i = indexOf(current, addressID)
		if i < 0 {
			return nil, apperr.NotFound("address not found")
		}
		if err := in.apply(&current[i]); err != nil {
			return nil, err
		}
		markDefault(current, preferred)
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	updated := addresses[i]
	return &updated, nil
}

// DeleteAddress removes an entry; when it was the default the first
// remaining entry takes over.
func (s *Service) DeleteAddress(ctx context.Context, userID primitive.ObjectID, addressID string) ([]models.Address, error) {
	return s.editAddresses(ctx, userID, func(current []models.Address) ([]models.Address, error) {
		i := indexOf(current, addressID)
		if i < 0 {
			return nil, apperr.NotFound("address not found")
		}
		next := append(current[:i:i], current[i+1:]...)
		markDefault(next, "")
		return next, nil
	})
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID primitive.ObjectID, addressID string) ([]models.Address, error) {
	return s.editAddresses(ctx, userID, func(current []models.Address) ([]models.Address, error) {
		if indexOf(current, addressID) < 0 {
			return nil, apperr.NotFound("address not found")
		}
		markDefault(current, addressID)
		return current, nil
	})
}
