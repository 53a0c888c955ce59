package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"myshop-backend/pkg/db/models"
	pkgerrors "myshop-backend/pkg/errors"
)

// AddressInput is the create/update payload for a shipping address.
type AddressInput struct {
	Name      string  `json:"name" validate:"required"`
	Line1     string  `json:"line1" validate:"required"`
	Line2     *string `json:"line2,omitempty"`
	City      string  `json:"city" validate:"required"`
	State     string  `json:"state" validate:"required"`
	Pincode   string  `json:"pincode" validate:"required,len=6,numeric"`
	Phone     string  `json:"phone" validate:"required"`
	IsDefault bool    `json:"is_default"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddressService manages a user's address book. A user has at most one
// default address; marking one default clears the previous flag.
type AddressService interface {
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type addressService struct {
	repo *Repository
	tx   txRunner
}

// NewAddressService builds the address book service.
func NewAddressService(repo *Repository, tx txRunner) (AddressService, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &addressService{repo: repo, tx: tx}, nil
}

func (s *addressService) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}

	address := &models.Address{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    strings.TrimSpace(input.Name),
		Line1:   strings.TrimSpace(input.Line1),
		Line2:   input.Line2,
		City:    strings.TrimSpace(input.City),
		State:   strings.TrimSpace(input.State),
		Pincode: strings.TrimSpace(input.Pincode),
		Phone:   strings.TrimSpace(input.Phone),
		// The first address is always the default.
		IsDefault: input.IsDefault || len(existing) == 0,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefaultAddress(ctx, userID); err != nil {
				return err
			}
		}
		return repo.CreateAddress(ctx, address)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return address, nil
}

func (s *addressService) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindAddress(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}

	fields := map[string]any{
		"name":       strings.TrimSpace(input.Name),
		"line1":      strings.TrimSpace(input.Line1),
		"line2":      input.Line2,
		"city":       strings.TrimSpace(input.City),
		"state":      strings.TrimSpace(input.State),
		"pincode":    strings.TrimSpace(input.Pincode),
		"phone":      strings.TrimSpace(input.Phone),
		"is_default": input.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefaultAddress(ctx, userID); err != nil {
				return err
			}
		}
		_, err := repo.UpdateAddress(ctx, addressID, fields)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}

	return s.Get(ctx, userID, addressID)
}

func (s *addressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	affected, err := s.repo.DeleteAddress(ctx, userID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return addresses, nil
}

func (s *addressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindAddress(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return address, nil
}

func validateAddressInput(input AddressInput) error {
	pincode := strings.TrimSpace(input.Pincode)
	if len(pincode) != 6 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pincode must be 6 digits")
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return pkgerrors.New(pkgerrors.CodeValidation, "pincode must be 6 digits")
		}
	}
	for field, value := range map[string]string{
		"name":  input.Name,
		"line1": input.Line1,
		"city":  input.City,
		"state": input.State,
		"phone": input.Phone,
	} {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}
	return nil
}
