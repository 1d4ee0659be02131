package integration

import (
	"context"
	"testing"
	"time"

	"meta-checkout/internal/model"
	"meta-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuestOrder() *model.GuestOrder {
	now := time.Now().UTC().Truncate(time.Millisecond)
	expiresAt := now.Add(24 * time.Hour)
	amount := int64(48800)
	return &model.GuestOrder{
		ID:         uuid.New(),
		GuestEmail: "guest@example.com",
		GuestName:  "Ana Lim",
		GuestPhone: "+60123456789",
		Address: model.Address{
			Line1:    "1 Jalan Example",
			City:     "Kuala Lumpur",
			Postcode: "50000",
			Country:  "MY",
		},
		CartItems: []model.CartEntry{
			{ID: "essential", Name: "Essential", Kind: model.EntryKindTier, PriceLabel: "RM 488", Currency: "MYR", AmountMinor: &amount},
		},
		TotalMYRMinor:     48800,
		PreferredCurrency: "MYR",
		PaymentMethod:     "card",
		PaymentStatus:     model.PaymentStatusPending,
		OrderExpiresAt:    &expiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestOrderRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	repo := repository.NewOrderRepository(testDB.Pool, zerolog.Nop())
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := newGuestOrder()
		require.NoError(t, repo.Create(ctx, order))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, order.GuestEmail, got.GuestEmail)
		assert.Equal(t, model.PaymentStatusPending, got.PaymentStatus)
		assert.Equal(t, int64(48800), got.TotalMYRMinor)
		require.Len(t, got.CartItems, 1)
		assert.Equal(t, "essential", got.CartItems[0].ID)
		require.NotNil(t, got.OrderExpiresAt)
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("status transition is compare-and-set", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := newGuestOrder()
		require.NoError(t, repo.Create(ctx, order))

		providerID := "pi_1"
		ok, err := repo.UpdatePaymentStatus(ctx, order.ID,
			model.PaymentStatusPending, model.PaymentStatusSucceeded,
			repository.StatusUpdate{ProviderPaymentID: &providerID, BumpAttempts: true})
		require.NoError(t, err)
		assert.True(t, ok)

		// Replay: no row is still pending, so nothing changes.
		ok, err = repo.UpdatePaymentStatus(ctx, order.ID,
			model.PaymentStatusPending, model.PaymentStatusSucceeded,
			repository.StatusUpdate{BumpAttempts: true})
		require.NoError(t, err)
		assert.False(t, ok)

		// A late failure event cannot demote a succeeded order.
		reason := "card declined"
		ok, err = repo.UpdatePaymentStatus(ctx, order.ID,
			model.PaymentStatusPending, model.PaymentStatusFailed,
			repository.StatusUpdate{FailureReason: &reason})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusSucceeded, got.PaymentStatus)
		assert.Equal(t, 1, got.PaymentAttempts)
		require.NotNil(t, got.PaymentProviderID)
		assert.Equal(t, "pi_1", *got.PaymentProviderID)
		assert.Nil(t, got.PaymentFailureReason)
		assert.NotNil(t, got.LastPaymentAttemptAt)
	})

	t.Run("failure records reason and bumps attempts", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := newGuestOrder()
		require.NoError(t, repo.Create(ctx, order))

		reason := "insufficient funds"
		ok, err := repo.UpdatePaymentStatus(ctx, order.ID,
			model.PaymentStatusPending, model.PaymentStatusFailed,
			repository.StatusUpdate{FailureReason: &reason, BumpAttempts: true})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusFailed, got.PaymentStatus)
		require.NotNil(t, got.PaymentFailureReason)
		assert.Equal(t, "insufficient funds", *got.PaymentFailureReason)
		assert.Equal(t, 1, got.PaymentAttempts)
	})

	t.Run("abandoned sweep claims each order once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		stale := newGuestOrder()
		stale.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
		stale.UpdatedAt = stale.CreatedAt
		require.NoError(t, repo.Create(ctx, stale))

		fresh := newGuestOrder()
		require.NoError(t, repo.Create(ctx, fresh))

		paid := newGuestOrder()
		paid.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
		paid.UpdatedAt = paid.CreatedAt
		require.NoError(t, repo.Create(ctx, paid))
		ok, err := repo.UpdatePaymentStatus(ctx, paid.ID,
			model.PaymentStatusPending, model.PaymentStatusSucceeded, repository.StatusUpdate{})
		require.NoError(t, err)
		require.True(t, ok)

		cutoff := time.Now().UTC().Add(-time.Hour)
		abandoned, err := repo.ListAbandoned(ctx, cutoff, 10)
		require.NoError(t, err)
		require.Len(t, abandoned, 1)
		assert.Equal(t, stale.ID, abandoned[0].ID)

		ok, err = repo.MarkReminderSent(ctx, stale.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkReminderSent(ctx, stale.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, ok)

		abandoned, err = repo.ListAbandoned(ctx, cutoff, 10)
		require.NoError(t, err)
		assert.Empty(t, abandoned)
	})

	t.Run("mark account created exactly once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := newGuestOrder()
		require.NoError(t, repo.Create(ctx, order))

		userID := uuid.New()
		ok, err := repo.MarkAccountCreated(ctx, order.ID, userID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkAccountCreated(ctx, order.ID, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, got.AccountCreated)
		require.NotNil(t, got.UserID)
		assert.Equal(t, userID, *got.UserID)
	})
}

func TestTokenRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	orderRepo := repository.NewOrderRepository(testDB.Pool, zerolog.Nop())
	tokenRepo := repository.NewTokenRepository(testDB.Pool, zerolog.Nop())
	ctx := context.Background()

	seedOrder := func(t *testing.T) *model.GuestOrder {
		t.Helper()
		order := newGuestOrder()
		require.NoError(t, orderRepo.Create(ctx, order))
		return order
	}

	t.Run("resume token consume is single use", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		order := seedOrder(t)

		now := time.Now().UTC()
		token := &model.ResumeToken{
			Token:     "tok_live",
			OrderID:   order.ID,
			ExpiresAt: now.Add(2 * time.Hour),
			CreatedAt: now,
		}
		require.NoError(t, tokenRepo.InsertResumeToken(ctx, token))

		orderID, ok, err := tokenRepo.ConsumeResumeToken(ctx, "tok_live", now)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, order.ID, orderID)

		_, ok, err = tokenRepo.ConsumeResumeToken(ctx, "tok_live", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired resume token cannot be consumed", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		order := seedOrder(t)

		now := time.Now().UTC()
		token := &model.ResumeToken{
			Token:     "tok_old",
			OrderID:   order.ID,
			ExpiresAt: now.Add(-time.Minute),
			CreatedAt: now.Add(-3 * time.Hour),
		}
		require.NoError(t, tokenRepo.InsertResumeToken(ctx, token))

		_, ok, err := tokenRepo.ConsumeResumeToken(ctx, "tok_old", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown resume token cannot be consumed", func(t *testing.T) {
		_, ok, err := tokenRepo.ConsumeResumeToken(ctx, "tok_bogus", time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("magic grant is marked used exactly once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		order := seedOrder(t)

		grant := &model.MagicLinkGrant{
			Token:     "magic_live",
			OrderID:   order.ID,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, tokenRepo.InsertMagicGrant(ctx, grant))

		got, err := tokenRepo.GetMagicGrant(ctx, "magic_live")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.UsedAt)

		ok, err := tokenRepo.MarkMagicGrantUsed(ctx, "magic_live", time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tokenRepo.MarkMagicGrantUsed(ctx, "magic_live", time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("released magic grant can be burned again", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		order := seedOrder(t)

		grant := &model.MagicLinkGrant{
			Token:     "magic_retry",
			OrderID:   order.ID,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, tokenRepo.InsertMagicGrant(ctx, grant))

		ok, err := tokenRepo.MarkMagicGrantUsed(ctx, "magic_retry", time.Now().UTC())
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, tokenRepo.ReleaseMagicGrant(ctx, "magic_retry"))

		got, err := tokenRepo.GetMagicGrant(ctx, "magic_retry")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.UsedAt)

		ok, err = tokenRepo.MarkMagicGrantUsed(ctx, "magic_retry", time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("newest grant wins the by-order lookup", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		order := seedOrder(t)

		missing, err := tokenRepo.GetMagicGrantForOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)

		older := &model.MagicLinkGrant{
			Token:     "magic_old",
			OrderID:   order.ID,
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		}
		require.NoError(t, tokenRepo.InsertMagicGrant(ctx, older))

		newer := &model.MagicLinkGrant{
			Token:     "magic_new",
			OrderID:   order.ID,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, tokenRepo.InsertMagicGrant(ctx, newer))

		got, err := tokenRepo.GetMagicGrantForOrder(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "magic_new", got.Token)
	})
}

func TestPlanAndLedgerRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	orderRepo := repository.NewOrderRepository(testDB.Pool, zerolog.Nop())
	planRepo := repository.NewPlanRepository(testDB.Pool, zerolog.Nop())
	ledgerRepo := repository.NewLedgerRepository(testDB.Pool, zerolog.Nop())
	ctx := context.Background()

	t.Run("seeded plans are listed", func(t *testing.T) {
		plans, err := planRepo.ListPlans(ctx, []string{"essential", "advanced", "supreme"})
		require.NoError(t, err)
		assert.Len(t, plans, 3)
	})

	t.Run("subscription lifecycle", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		plans, err := planRepo.ListPlans(ctx, []string{"essential"})
		require.NoError(t, err)
		require.Len(t, plans, 1)

		userID := uuid.New()
		exists, err := planRepo.HasSubscription(ctx, userID)
		require.NoError(t, err)
		assert.False(t, exists)

		err = planRepo.InsertUserSubscription(ctx, &model.UserSubscription{
			ID:        uuid.New(),
			UserID:    userID,
			PlanID:    plans[0].ID,
			Status:    "active",
			StartedAt: time.Now().UTC(),
			AutoRenew: true,
		})
		require.NoError(t, err)

		exists, err = planRepo.HasSubscription(ctx, userID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("ledger mirror is idempotent per order", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := newGuestOrder()
		require.NoError(t, orderRepo.Create(ctx, order))

		providerID := "pi_1"
		params := repository.MirrorParams{
			OrderID:           order.ID,
			UserID:            uuid.New(),
			AmountMinor:       48800,
			Currency:          "MYR",
			ProviderPaymentID: &providerID,
		}

		require.NoError(t, ledgerRepo.MirrorPayment(ctx, params))
		require.NoError(t, ledgerRepo.MirrorPayment(ctx, params))

		var count int
		err := testDB.Pool.QueryRow(ctx,
			`SELECT count(*) FROM payments WHERE order_id = $1`, order.ID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
