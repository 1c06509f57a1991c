package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"

	"github.com/goccy/go-json"
)

// ClientStateUsecase keeps the per-user cart and address book. Values are
// opaque JSON blobs to the backend; structure is checked here on every load.
type ClientStateUsecase struct {
	backend domain.StateBackend
	now     func() time.Time
}

func NewClientStateUsecase(backend domain.StateBackend) *ClientStateUsecase {
	return &ClientStateUsecase{backend: backend, now: time.Now}
}

func cartKey(userID string) string      { return "cart:" + userID }
func addressesKey(userID string) string { return "addresses:" + userID }

// --- Cart ---

func (u *ClientStateUsecase) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	empty := domain.Cart{Items: []domain.CartItem{}}
	var cart domain.Cart
	ok, err := u.load(ctx, cartKey(userID), &cart, func() error { return validateCart(cart) })
	if err != nil || !ok {
		return empty, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

func (u *ClientStateUsecase) SaveCart(ctx context.Context, userID string, cart domain.Cart) (domain.Cart, error) {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	if err := validateCart(cart); err != nil {
		return domain.Cart{}, err
	}
	cart.UpdatedAt = u.now().UTC()
	if err := u.save(ctx, cartKey(userID), cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (u *ClientStateUsecase) ClearCart(ctx context.Context, userID string) error {
	return u.backend.Delete(ctx, cartKey(userID))
}

func validateCart(c domain.Cart) error {
	for i, item := range c.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.ProductID) == "" {
			return domain.NewValidationError(field+".productId", "product id is required")
		}
		if item.Quantity <= 0 {
			return domain.NewValidationError(field+".quantity", "quantity must be positive")
		}
		if item.Price.IsNegative() {
			return domain.NewValidationError(field+".price", "price cannot be negative")
		}
	}
	return nil
}

// --- Address book ---

func (u *ClientStateUsecase) GetAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	var addresses []domain.Address
	ok, err := u.load(ctx, addressesKey(userID), &addresses, func() error { return validateAddresses(addresses) })
	if err != nil || !ok || addresses == nil {
		return []domain.Address{}, err
	}
	return addresses, nil
}

func (u *ClientStateUsecase) SaveAddresses(ctx context.Context, userID string, addresses []domain.Address) ([]domain.Address, error) {
	if addresses == nil {
		addresses = []domain.Address{}
	}
	if err := validateAddresses(addresses); err != nil {
		return nil, err
	}
	if err := u.save(ctx, addressesKey(userID), addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func validateAddresses(addresses []domain.Address) error {
	seen := make(map[string]bool, len(addresses))
	defaults := 0
	for i, a := range addresses {
		field := fmt.Sprintf("addresses[%d]", i)
		if strings.TrimSpace(a.ID) == "" {
			return domain.NewValidationError(field+".id", "id is required")
		}
		if seen[a.ID] {
			return domain.NewValidationError(field+".id", "duplicate address id")
		}
		seen[a.ID] = true
		if strings.TrimSpace(a.FullName) == "" || strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.City) == "" {
			return domain.NewValidationError(field, "name, address line and city are required")
		}
		if a.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return domain.NewValidationError("addresses", "only one address can be the default")
	}
	return nil
}

// Clear drops everything stored for the user. Runs when the upstream session expires.
func (u *ClientStateUsecase) Clear(ctx context.Context, userID string) error {
	return errors.Join(
		u.backend.Delete(ctx, cartKey(userID)),
		u.backend.Delete(ctx, addressesKey(userID)),
	)
}

// load decodes key into dst. A value that does not decode or fails check is
// logged, reset to empty and reported as absent.
func (u *ClientStateUsecase) load(ctx context.Context, key string, dst any, check func() error) (bool, error) {
	raw, err := u.backend.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	invalid := json.Unmarshal(raw, dst)
	if invalid == nil {
		invalid = check()
	}
	if invalid == nil {
		return true, nil
	}

	logger.WithContext(ctx).Warn().
		Err(invalid).
		Str("key", key).
		Msg("Stored client state is malformed, resetting")
	if err := u.backend.Delete(ctx, key); err != nil {
		logger.WithContext(ctx).Error().Err(err).Str("key", key).Msg("Failed to reset client state")
	}
	return false, nil
}

func (u *ClientStateUsecase) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return u.backend.Put(ctx, key, raw)
}
