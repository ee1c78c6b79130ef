package service

import (
	"KeyVault/internal/access"
	"KeyVault/internal/model"
	"KeyVault/internal/repo"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type secretFixture struct {
	db    *gorm.DB
	svc   *SecretService
	admin access.Identity
	bob   access.Identity
	carol access.Identity
}

func newSecretFixture(t *testing.T) *secretFixture {
	t.Helper()
	db := newTestDB(t)
	return &secretFixture{
		db:    db,
		svc:   NewSecretService(repo.NewSecretRepository(db), newTestCipher(t)),
		admin: seedUser(t, db, "admin", access.RoleAdmin),
		bob:   seedUser(t, db, "bob", access.RoleUser),
		carol: seedUser(t, db, "carol", access.RoleUser),
	}
}

func TestSecretService_CreateAndGet(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Create(ctx, f.bob, "  db_pw  ", "x", "  primary db  "))

	got, err := f.svc.Get(ctx, f.bob, "db_pw")
	require.NoError(t, err)
	assert.Equal(t, "db_pw", got.Name)
	assert.Equal(t, "x", got.Value)
	assert.Equal(t, "primary db", got.Description)
	assert.Equal(t, f.bob.UserID, got.OwnerID)

	// в БД лежит только шифртекст
	var row model.Secret
	require.NoError(t, f.db.Where("name = ?", "db_pw").First(&row).Error)
	assert.NotEqual(t, []byte("x"), row.EncryptedValue)
	assert.Equal(t, "bob", row.CreatedBy)

	// администратор видит тот же секрет
	got, err = f.svc.Get(ctx, f.admin, "db_pw")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Value)
}

func TestSecretService_OwnershipIsIndistinguishableFromMissing(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Create(ctx, f.bob, "db_pw", "x", ""))

	_, errForeign := f.svc.Get(ctx, f.carol, "db_pw")
	_, errMissing := f.svc.Get(ctx, f.carol, "nope")
	assert.ErrorIs(t, errForeign, ErrNotFound)
	assert.ErrorIs(t, errMissing, ErrNotFound)
	assert.Equal(t, errMissing.Error(), errForeign.Error())

	assert.ErrorIs(t, f.svc.Update(ctx, f.carol, "db_pw", SecretPatch{Value: ptrStr("y")}), ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.carol, "db_pw"), ErrNotFound)

	// секрет не пострадал
	got, err := f.svc.Get(ctx, f.bob, "db_pw")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Value)
}

func TestSecretService_CreateValidation(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()

	err := f.svc.Create(ctx, f.bob, "   ", "x", "")
	assert.ErrorIs(t, err, ErrValidation)

	err = f.svc.Create(ctx, access.Identity{}, "k", "x", "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSecretService_DuplicateName(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Create(ctx, f.bob, "shared", "first", ""))
	err := f.svc.Create(ctx, f.carol, "shared", "second", "")
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := f.svc.Get(ctx, f.bob, "shared")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Value)
}

func TestSecretService_ConcurrentCreateHasOneWinner(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := f.bob
			if i%2 == 1 {
				caller = f.carol
			}
			errs[i] = f.svc.Create(ctx, caller, "race", "v", "")
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrDuplicateName):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestSecretService_List(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Create(ctx, f.bob, "b1", "v", "first"))
	require.NoError(t, f.svc.Create(ctx, f.carol, "c1", "v", ""))
	require.NoError(t, f.svc.Create(ctx, f.bob, "b2", "v", ""))

	own, err := f.svc.List(ctx, f.bob)
	require.NoError(t, err)
	if assert.Len(t, own, 2) {
		assert.Equal(t, "b2", own[0].Name)
		assert.Equal(t, "b1", own[1].Name)
		assert.Equal(t, "bob", own[1].CreatedBy)
		assert.Equal(t, "first", own[1].Description)
	}

	all, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.List(ctx, access.Identity{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSecretService_UpdatePartial(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Create(ctx, f.bob, "k", "v1", "d1"))

	before, err := f.svc.Get(ctx, f.bob, "k")
	require.NoError(t, err)

	t.Run("empty patch is a no-op", func(t *testing.T) {
		require.NoError(t, f.svc.Update(ctx, f.bob, "k", SecretPatch{}))
		got, err := f.svc.Get(ctx, f.bob, "k")
		require.NoError(t, err)
		assert.Equal(t, "v1", got.Value)
		assert.Equal(t, before.UpdatedAt, got.UpdatedAt)
	})

	t.Run("description only", func(t *testing.T) {
		require.NoError(t, f.svc.Update(ctx, f.bob, "k", SecretPatch{Description: ptrStr("  d2 ")}))
		got, err := f.svc.Get(ctx, f.bob, "k")
		require.NoError(t, err)
		assert.Equal(t, "v1", got.Value)
		assert.Equal(t, "d2", got.Description)
		assert.False(t, got.UpdatedAt.Before(before.UpdatedAt))
	})

	t.Run("value re-encrypted by admin", func(t *testing.T) {
		var old model.Secret
		require.NoError(t, f.db.Where("name = ?", "k").First(&old).Error)

		require.NoError(t, f.svc.Update(ctx, f.admin, "k", SecretPatch{Value: ptrStr("v2")}))
		got, err := f.svc.Get(ctx, f.bob, "k")
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Value)
		assert.Equal(t, "d2", got.Description)

		var now model.Secret
		require.NoError(t, f.db.Where("name = ?", "k").First(&now).Error)
		assert.NotEqual(t, old.EncryptedValue, now.EncryptedValue)
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Update(ctx, f.bob, "missing", SecretPatch{}), ErrNotFound)
	})
}

func TestSecretService_Delete(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Create(ctx, f.bob, "k1", "v", ""))
	require.NoError(t, f.svc.Create(ctx, f.bob, "k2", "v", ""))

	require.NoError(t, f.svc.Delete(ctx, f.bob, "k1"))
	_, err := f.svc.Get(ctx, f.bob, "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	// администратор удаляет чужой секрет
	require.NoError(t, f.svc.Delete(ctx, f.admin, "k2"))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, "k2"), ErrNotFound)
}

func TestSecretService_DecryptionFailureIsCryptoError(t *testing.T) {
	f := newSecretFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Create(ctx, f.bob, "k", "v", ""))

	// испорченный шифртекст
	require.NoError(t, f.db.Model(&model.Secret{}).Where("name = ?", "k").
		Update("encrypted_value", []byte("garbage-garbage-garbage-garbage")).Error)

	_, err := f.svc.Get(ctx, f.bob, "k")
	assert.ErrorIs(t, err, ErrCrypto)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, err.Error(), testEncryptionKey)
}
