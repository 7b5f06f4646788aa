package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestRetryOnConflict(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return ErrVersionConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = RetryOnConflict(context.Background(), func(context.Context) error {
		calls++
		return ErrVersionConflict
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, ConflictAttempts, calls)

	boom := errors.New("boom")
	calls = 0
	err = RetryOnConflict(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPageWindow(t *testing.T) {
	start, end := Page{Page: 2, Limit: 3}.Window(7)
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	start, end = Page{Page: 5, Limit: 3}.Window(7)
	assert.Equal(t, start, end)

	n := Page{Page: 0, Limit: 1000}.Normalize()
	assert.Equal(t, 1, n.Page)
	assert.Equal(t, MaxLimit, n.Limit)
	assert.Equal(t, int64(20), Page{Page: 3, Limit: 10}.Skip())
}

func TestOrderFilterMatches(t *testing.T) {
	o := models.Order{
		OrderNumber:  "AMB25010007",
		Status:       models.OrderStatusPending,
		CustomerInfo: models.CustomerInfo{Name: "Asha Rao", Email: "asha@example.com"},
	}
	assert.True(t, OrderFilter{Search: "amb2501"}.Matches(o))
	assert.True(t, OrderFilter{Search: "RAO"}.Matches(o))
	assert.False(t, OrderFilter{Search: "zzz"}.Matches(o))
	assert.False(t, OrderFilter{Status: models.OrderStatusShipped}.Matches(o))
}

func TestUserFilterMatches(t *testing.T) {
	u := models.User{
		Name:           "Meera Traders",
		Email:          "meera@traders.in",
		Company:        "Meera Wholesale",
		Role:           models.RoleUser,
		CustomerType:   models.CustomerB2B,
		ApprovalStatus: models.ApprovalPending,
	}
	assert.True(t, UserFilter{}.Matches(u))
	assert.True(t, UserFilter{Search: "wholesale"}.Matches(u))
	assert.True(t, UserFilter{CustomerType: models.CustomerB2B, ApprovalStatus: models.ApprovalPending}.Matches(u))
	assert.False(t, UserFilter{Role: models.RoleAdmin}.Matches(u))
	assert.False(t, UserFilter{Search: "nobody"}.Matches(u))

	legacy := models.User{Name: "Old", Role: models.RoleUser}
	assert.True(t, UserFilter{CustomerType: models.CustomerB2C}.Matches(legacy))
	assert.False(t, UserFilter{CustomerType: models.CustomerB2B}.Matches(legacy))
}

func TestAccountPatchApply(t *testing.T) {
	u := models.User{Role: models.RoleUser, Version: 4}
	role := models.RoleAdmin
	AccountPatch{Role: &role}.ApplyTo(&u)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, int64(5), u.Version)
}
