package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockRepository) GrantOrExtendSubscription(ctx context.Context, userID int64, planDays int,
	planType models.PlanType, paymentID *string) (*models.Subscription, error) {
	args := m.Called(ctx, userID, planDays, planType, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockRepository) RevokeSubscription(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRepository) ExpireOverdueSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockRepository) ListOverdueSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockRepository) ListExpiringSubscriptions(ctx context.Context, windowDays int) ([]*models.Subscription, error) {
	args := m.Called(ctx, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockRepository) ClaimReminder(ctx context.Context, userID int64, thresholdDays int) (bool, error) {
	args := m.Called(ctx, userID, thresholdDays)
	return args.Bool(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// memoryCache — простейший кеш в памяти для тестов, где важно реальное
// содержимое записей, а не последовательность вызовов.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]models.Subscription
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]models.Subscription)}
}

func (c *memoryCache) Get(key string, result any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*result.(*models.Subscription) = sub
	return true, nil
}

func (c *memoryCache) Set(key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case *models.Subscription:
		c.entries[key] = *v
	case models.Subscription:
		c.entries[key] = v
	}
	return nil
}

func (c *memoryCache) Invalidate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyActivated(userID int64, plan models.PlanType, endDate *time.Time) {
	m.Called(userID, plan, endDate)
}

func (m *MockNotifier) NotifyExpiring(userID int64, daysLeft int) {
	m.Called(userID, daysLeft)
}

func (m *MockNotifier) NotifyExpired(userID int64, plan models.PlanType) {
	m.Called(userID, plan)
}

func (m *MockNotifier) NotifyRevoked(userID int64) {
	m.Called(userID)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testPlans() config.Plans {
	return config.Plans{
		BasicDays: 7, StandardDays: 30, PremiumDays: 90,
		BasicPrice: 5, StandardPrice: 15, PremiumPrice: 40,
		Currency: "USD",
	}
}

func testPolicy() config.Policy {
	return config.Policy{
		AutoRevokeExpired: true,
		FreeTierFallback:  true,
		FreeTierCommands:  []string{"help", "start"},
	}
}

func newTestService(repo *MockRepository, cache *MockCache, notifier *MockNotifier) *Service {
	return New(repo, cache, notifier, testPlans(), testPolicy(), newNoopLogger())
}

func future(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestService_PlanTypeForDays(t *testing.T) {
	svc := newTestService(new(MockRepository), new(MockCache), new(MockNotifier))

	assert.Equal(t, models.PlanFree, svc.PlanTypeForDays(0))
	assert.Equal(t, models.PlanBasic, svc.PlanTypeForDays(7))
	assert.Equal(t, models.PlanStandard, svc.PlanTypeForDays(30))
	assert.Equal(t, models.PlanPremium, svc.PlanTypeForDays(90))
	assert.Equal(t, models.PlanCustom, svc.PlanTypeForDays(14))
}

func TestService_GetStatus(t *testing.T) {
	userID := int64(100)
	activeSub := &models.Subscription{
		UserID:    userID,
		PlanType:  models.PlanStandard,
		Status:    models.SubscriptionActive,
		StartDate: time.Now().Add(-24 * time.Hour),
		EndDate:   future(10 * 24 * time.Hour),
	}

	tests := []struct {
		name          string
		setupMocks    func(*MockRepository, *MockCache)
		checkResult   func(*testing.T, *models.SubscriptionStatusInfo)
		expectedError bool
	}{
		{
			name: "cache hit with active subscription skips storage",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:100", mock.Anything).Run(func(args mock.Arguments) {
					*args.Get(1).(*models.Subscription) = *activeSub
				}).Return(true, nil).Once()
			},
			checkResult: func(t *testing.T, info *models.SubscriptionStatusInfo) {
				assert.True(t, info.IsActive)
				assert.Equal(t, models.PlanStandard, info.Plan)
				assert.Equal(t, []string{"*"}, info.AllowedCommands)
			},
		},
		{
			name: "stale cache entry is dropped and storage is consulted",
			setupMocks: func(r *MockRepository, c *MockCache) {
				stale := *activeSub
				stale.EndDate = future(-time.Hour)
				c.On("Get", "subscription:100", mock.Anything).Run(func(args mock.Arguments) {
					*args.Get(1).(*models.Subscription) = stale
				}).Return(true, nil).Once()
				c.On("Invalidate", "subscription:100").Return(nil).Once()
				r.On("GetSubscription", mock.Anything, userID).Return(activeSub, nil).Once()
				c.On("Set", "subscription:100", activeSub, statusCacheTTL).Return(nil).Once()
			},
			checkResult: func(t *testing.T, info *models.SubscriptionStatusInfo) {
				assert.True(t, info.IsActive)
			},
		},
		{
			name: "cache miss reads storage and caches active subscription",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:100", mock.Anything).Return(false, nil).Once()
				r.On("GetSubscription", mock.Anything, userID).Return(activeSub, nil).Once()
				c.On("Set", "subscription:100", activeSub, statusCacheTTL).Return(nil).Once()
			},
			checkResult: func(t *testing.T, info *models.SubscriptionStatusInfo) {
				assert.True(t, info.IsActive)
				assert.Equal(t, models.PlanStandard, info.Plan)
			},
		},
		{
			name: "no record yields free tier default without storage writes",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:100", mock.Anything).Return(false, nil).Once()
				r.On("GetSubscription", mock.Anything, userID).Return(nil, errs.ErrNotFound).Once()
			},
			checkResult: func(t *testing.T, info *models.SubscriptionStatusInfo) {
				assert.True(t, info.IsActive)
				assert.Equal(t, models.PlanFree, info.Plan)
				assert.Equal(t, []string{"help", "start"}, info.AllowedCommands)
				assert.Nil(t, info.EndDate)
			},
		},
		{
			name: "cache read failure falls back to storage",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:100", mock.Anything).Return(false, errors.New("redis down")).Once()
				r.On("GetSubscription", mock.Anything, userID).Return(activeSub, nil).Once()
				c.On("Set", "subscription:100", activeSub, statusCacheTTL).Return(nil).Once()
			},
			checkResult: func(t *testing.T, info *models.SubscriptionStatusInfo) {
				assert.True(t, info.IsActive)
			},
		},
		{
			name: "storage failure is propagated",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:100", mock.Anything).Return(false, nil).Once()
				r.On("GetSubscription", mock.Anything, userID).Return(nil, errs.ErrUpstreamUnavailable).Once()
			},
			expectedError: true,
		},
		{
			name: "expired record is reported inactive with free tier commands",
			setupMocks: func(r *MockRepository, c *MockCache) {
				expired := *activeSub
				expired.Status = models.SubscriptionExpired
				c.On("Get", "subscription:100", mock.Anything).Return(false, nil).Once()
				r.On("GetSubscription", mock.Anything, userID).Return(&expired, nil).Once()
			},
			checkResult: func(t *testing.T, info *models.SubscriptionStatusInfo) {
				assert.False(t, info.IsActive)
				assert.Equal(t, []string{"help", "start"}, info.AllowedCommands)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			cache := new(MockCache)
			notifier := new(MockNotifier)
			svc := newTestService(repo, cache, notifier)

			tt.setupMocks(repo, cache)

			info, err := svc.GetStatus(context.Background(), userID)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				tt.checkResult(t, info)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_ActivateOrExtend(t *testing.T) {
	userID := int64(200)
	paymentID := "pay-1"
	granted := &models.Subscription{
		UserID:    userID,
		PlanType:  models.PlanBasic,
		Status:    models.SubscriptionActive,
		StartDate: time.Now(),
		EndDate:   future(7 * 24 * time.Hour),
		PaymentID: &paymentID,
	}

	t.Run("grants subscription, refreshes cache and notifies", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		repo.On("GrantOrExtendSubscription", mock.Anything, userID, 7, models.PlanBasic, &paymentID).
			Return(granted, nil).Once()
		cache.On("Set", "subscription:200", granted, statusCacheTTL).Return(nil).Once()
		notifier.On("NotifyActivated", userID, models.PlanBasic, granted.EndDate).Once()

		sub, err := svc.ActivateOrExtend(context.Background(), userID, 7, &paymentID)

		require.NoError(t, err)
		assert.Equal(t, granted, sub)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("storage failure aborts without notification", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		repo.On("GrantOrExtendSubscription", mock.Anything, userID, 7, models.PlanBasic, &paymentID).
			Return(nil, errs.ErrUpstreamUnavailable).Once()

		_, err := svc.ActivateOrExtend(context.Background(), userID, 7, &paymentID)

		assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
		notifier.AssertNotCalled(t, "NotifyActivated", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("cache write failure does not fail the grant", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		repo.On("GrantOrExtendSubscription", mock.Anything, userID, 7, models.PlanBasic, &paymentID).
			Return(granted, nil).Once()
		cache.On("Set", "subscription:200", granted, statusCacheTTL).Return(errors.New("redis down")).Once()
		notifier.On("NotifyActivated", userID, models.PlanBasic, granted.EndDate).Once()

		_, err := svc.ActivateOrExtend(context.Background(), userID, 7, &paymentID)

		require.NoError(t, err)
	})
}

func TestService_Revoke(t *testing.T) {
	userID := int64(300)

	t.Run("invalidates cache around the store write and notifies", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		cache.On("Invalidate", "subscription:300").Return(nil).Twice()
		repo.On("RevokeSubscription", mock.Anything, userID).Return(nil).Once()
		notifier.On("NotifyRevoked", userID).Once()

		err := svc.Revoke(context.Background(), userID)

		require.NoError(t, err)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("missing subscription is reported", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		cache.On("Invalidate", "subscription:300").Return(nil).Once()
		repo.On("RevokeSubscription", mock.Anything, userID).Return(errs.ErrNotFound).Once()

		err := svc.Revoke(context.Background(), userID)

		assert.ErrorIs(t, err, errs.ErrNotFound)
		notifier.AssertNotCalled(t, "NotifyRevoked", mock.Anything)
	})

	t.Run("status read racing the store write cannot leave a stale active entry", func(t *testing.T) {
		repo := new(MockRepository)
		cache := newMemoryCache()
		notifier := new(MockNotifier)
		svc := New(repo, cache, notifier, testPlans(), testPolicy(), newNoopLogger())

		active := &models.Subscription{
			UserID:    userID,
			PlanType:  models.PlanPremium,
			Status:    models.SubscriptionActive,
			StartDate: time.Now().Add(-24 * time.Hour),
			EndDate:   future(10 * 24 * time.Hour),
		}
		cancelled := *active
		cancelled.Status = models.SubscriptionCancelled

		// Пока идёт запись отзыва, конкурентный запрос статуса успевает
		// перечитать ещё активную строку и вернуть её в кеш.
		repo.On("GetSubscription", mock.Anything, userID).Return(active, nil).Once()
		repo.On("RevokeSubscription", mock.Anything, userID).Run(func(_ mock.Arguments) {
			info, err := svc.GetStatus(context.Background(), userID)
			require.NoError(t, err)
			require.True(t, info.IsActive)
		}).Return(nil).Once()
		repo.On("GetSubscription", mock.Anything, userID).Return(&cancelled, nil).Once()
		notifier.On("NotifyRevoked", userID).Once()

		require.NoError(t, svc.Revoke(context.Background(), userID))

		info, err := svc.GetStatus(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, info.IsActive, "status after revoke must not be active")
		repo.AssertExpectations(t)
	})
}

func TestService_SweepExpired(t *testing.T) {
	expired := []*models.Subscription{
		{UserID: 1, PlanType: models.PlanBasic, Status: models.SubscriptionExpired},
		{UserID: 2, PlanType: models.PlanPremium, Status: models.SubscriptionExpired},
	}

	t.Run("transitions all overdue and downgrades to free tier", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		repo.On("ExpireOverdueSubscriptions", mock.Anything).Return(expired, nil).Once()
		for _, sub := range expired {
			cache.On("Invalidate", cacheKey(sub.UserID)).Return(nil).Once()
			repo.On("GrantOrExtendSubscription", mock.Anything, sub.UserID, 0, models.PlanFree, (*string)(nil)).
				Return(&models.Subscription{UserID: sub.UserID, PlanType: models.PlanFree,
					Status: models.SubscriptionActive}, nil).Once()
			notifier.On("NotifyExpired", sub.UserID, sub.PlanType).Once()
		}

		count, err := svc.SweepExpired(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("auto-revoke disabled leaves subscriptions untouched", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		policy := testPolicy()
		policy.AutoRevokeExpired = false
		svc := New(repo, cache, notifier, testPlans(), policy, newNoopLogger())

		repo.On("ListOverdueSubscriptions", mock.Anything).Return(expired, nil).Once()

		count, err := svc.SweepExpired(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		repo.AssertNotCalled(t, "ExpireOverdueSubscriptions", mock.Anything)
		notifier.AssertNotCalled(t, "NotifyExpired", mock.Anything, mock.Anything)
	})

	t.Run("free tier fallback disabled only expires", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		policy := testPolicy()
		policy.FreeTierFallback = false
		svc := New(repo, cache, notifier, testPlans(), policy, newNoopLogger())

		repo.On("ExpireOverdueSubscriptions", mock.Anything).Return(expired[:1], nil).Once()
		cache.On("Invalidate", "subscription:1").Return(nil).Once()
		notifier.On("NotifyExpired", int64(1), models.PlanBasic).Once()

		count, err := svc.SweepExpired(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		repo.AssertNotCalled(t, "GrantOrExtendSubscription",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure is propagated", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		repo.On("ExpireOverdueSubscriptions", mock.Anything).Return(nil, errs.ErrUpstreamUnavailable).Once()

		_, err := svc.SweepExpired(context.Background())

		assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
	})
}

func TestService_SendDueReminders(t *testing.T) {
	t.Run("sends reminder once per threshold", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		expiring := []*models.Subscription{
			{UserID: 1, Status: models.SubscriptionActive, EndDate: future(2 * 24 * time.Hour)},
			{UserID: 2, Status: models.SubscriptionActive, EndDate: future(6 * 24 * time.Hour)},
			{UserID: 3, Status: models.SubscriptionActive, EndDate: nil},
		}
		repo.On("ListExpiringSubscriptions", mock.Anything, 7).Return(expiring, nil).Once()
		repo.On("ClaimReminder", mock.Anything, int64(1), 3).Return(true, nil).Once()
		repo.On("ClaimReminder", mock.Anything, int64(2), 7).Return(false, nil).Once()
		notifier.On("NotifyExpiring", int64(1), 2).Once()

		sent, err := svc.SendDueReminders(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("claim failure skips the subscription", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		notifier := new(MockNotifier)
		svc := newTestService(repo, cache, notifier)

		expiring := []*models.Subscription{
			{UserID: 1, Status: models.SubscriptionActive, EndDate: future(12 * time.Hour)},
		}
		repo.On("ListExpiringSubscriptions", mock.Anything, 7).Return(expiring, nil).Once()
		repo.On("ClaimReminder", mock.Anything, int64(1), 1).Return(false, errs.ErrUpstreamUnavailable).Once()

		sent, err := svc.SendDueReminders(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		notifier.AssertNotCalled(t, "NotifyExpiring", mock.Anything, mock.Anything)
	})
}

func TestService_CheckCommandAccess(t *testing.T) {
	userID := int64(400)

	tests := []struct {
		name     string
		sub      *models.Subscription
		command  string
		expected bool
	}{
		{
			name: "active paid subscription allows any command",
			sub: &models.Subscription{UserID: userID, PlanType: models.PlanPremium,
				Status: models.SubscriptionActive, EndDate: future(24 * time.Hour)},
			command:  "analyze",
			expected: true,
		},
		{
			name: "free subscription allows only free commands",
			sub: &models.Subscription{UserID: userID, PlanType: models.PlanFree,
				Status: models.SubscriptionActive},
			command:  "analyze",
			expected: false,
		},
		{
			name: "free subscription allows free command",
			sub: &models.Subscription{UserID: userID, PlanType: models.PlanFree,
				Status: models.SubscriptionActive},
			command:  "help",
			expected: true,
		},
		{
			name: "cancelled subscription falls back to free commands",
			sub: &models.Subscription{UserID: userID, PlanType: models.PlanPremium,
				Status: models.SubscriptionCancelled},
			command:  "start",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			cache := new(MockCache)
			notifier := new(MockNotifier)
			svc := newTestService(repo, cache, notifier)

			cache.On("Get", cacheKey(userID), mock.Anything).Return(false, nil).Once()
			repo.On("GetSubscription", mock.Anything, userID).Return(tt.sub, nil).Once()
			cache.On("Set", cacheKey(userID), tt.sub, statusCacheTTL).Return(nil).Maybe()

			allowed, err := svc.CheckCommandAccess(context.Background(), userID, tt.command)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, allowed)
		})
	}
}

func TestService_RenewalOptions(t *testing.T) {
	svc := newTestService(new(MockRepository), new(MockCache), new(MockNotifier))

	options := svc.RenewalOptions()

	require.Len(t, options, 3)
	assert.Equal(t, models.RenewalOption{Plan: models.PlanBasic, Days: 7, Price: 5, Currency: "USD"}, options[0])
	assert.Equal(t, models.RenewalOption{Plan: models.PlanStandard, Days: 30, Price: 15, Currency: "USD"}, options[1])
	assert.Equal(t, models.RenewalOption{Plan: models.PlanPremium, Days: 90, Price: 40, Currency: "USD"}, options[2])
}

func TestDaysUntil(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 0, daysUntil(now, now.Add(-time.Hour)))
	assert.Equal(t, 1, daysUntil(now, now.Add(12*time.Hour)))
	assert.Equal(t, 2, daysUntil(now, now.Add(36*time.Hour)))
	assert.Equal(t, 7, daysUntil(now, now.Add(7*24*time.Hour)))
}

func TestThresholdFor(t *testing.T) {
	tests := []struct {
		daysLeft  int
		threshold int
		ok        bool
	}{
		{0, 1, true},
		{1, 1, true},
		{2, 3, true},
		{3, 3, true},
		{5, 7, true},
		{7, 7, true},
		{8, 0, false},
	}
	for _, tt := range tests {
		threshold, ok := thresholdFor(tt.daysLeft)
		assert.Equal(t, tt.ok, ok, "daysLeft=%d", tt.daysLeft)
		assert.Equal(t, tt.threshold, threshold, "daysLeft=%d", tt.daysLeft)
	}
}
