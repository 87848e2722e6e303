package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"farm-to-keells/internal/farmer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) GetByID(ctx context.Context, id int64) (*farmer.Farmer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*farmer.Farmer), args.Error(1)
}

func (m *MockRemote) UpdateProfile(ctx context.Context, id int64, u farmer.ProfileUpdate) (*farmer.Farmer, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*farmer.Farmer), args.Error(1)
}

func nimal() *farmer.Farmer {
	return &farmer.Farmer{ID: 1, FullName: "Nimal Perera", Username: "nimal", Location: "Kandy"}
}

func tempStorage(t *testing.T) *FileStorage {
	t.Helper()
	return NewFileStorage(filepath.Join(t.TempDir(), "session.json"))
}

func TestContext_LoginLogout(t *testing.T) {
	ctx := context.Background()
	storage := tempStorage(t)
	remote := new(MockRemote)
	remote.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("offline"))

	sess := New(storage, remote)
	var cleared int
	sess.OnLogout(func() { cleared++ })

	require.NoError(t, sess.Login(ctx, nimal()))
	sess.Wait()
	assert.True(t, sess.IsLoggedIn())
	assert.Equal(t, "Nimal Perera", sess.Current().FullName)

	require.NoError(t, sess.Logout())
	assert.False(t, sess.IsLoggedIn())
	assert.Nil(t, sess.Current())
	assert.Equal(t, 1, cleared)

	_, err := os.Stat(storage.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestContext_RestoreAfterRestart(t *testing.T) {
	ctx := context.Background()
	storage := tempStorage(t)
	remote := new(MockRemote)
	remote.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("offline"))

	first := New(storage, remote)
	require.NoError(t, first.Login(ctx, nimal()))
	first.Wait()

	restarted := New(NewFileStorage(storage.Path()), remote)
	assert.True(t, restarted.Hydrate(ctx))
	restarted.Wait()

	require.True(t, restarted.IsLoggedIn())
	assert.Equal(t, int64(1), restarted.Current().ID)
	assert.Equal(t, "Nimal Perera", restarted.Current().FullName)
}

func TestContext_Hydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("Nothing stored", func(t *testing.T) {
		sess := New(tempStorage(t), new(MockRemote))
		assert.False(t, sess.Hydrate(ctx))
		assert.False(t, sess.IsLoggedIn())
	})

	t.Run("Corrupt blob fails open", func(t *testing.T) {
		storage := tempStorage(t)
		require.NoError(t, os.WriteFile(storage.Path(), []byte("garbage"), 0o600))

		sess := New(storage, new(MockRemote))
		assert.False(t, sess.Hydrate(ctx))
		assert.False(t, sess.IsLoggedIn())

		_, err := os.Stat(storage.Path())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Background refresh overwrites", func(t *testing.T) {
		storage := tempStorage(t)
		require.NoError(t, storage.Save(nimal()))

		fresh := nimal()
		fresh.PhoneNumber = "0771234567"
		fresh.Password = "hash"
		remote := new(MockRemote)
		remote.On("GetByID", mock.Anything, int64(1)).Return(fresh, nil)

		sess := New(storage, remote)
		require.True(t, sess.Hydrate(ctx))
		sess.Wait()

		assert.Equal(t, "0771234567", sess.Current().PhoneNumber)
		assert.Empty(t, sess.Current().Password)

		stored, err := storage.Load()
		require.NoError(t, err)
		assert.Equal(t, "0771234567", stored.PhoneNumber)
	})
}

func TestContext_RefreshAfterLogoutIsDiscarded(t *testing.T) {
	ctx := context.Background()
	storage := tempStorage(t)
	release := make(chan struct{})

	remote := new(MockRemote)
	remote.On("GetByID", mock.Anything, int64(1)).
		Run(func(mock.Arguments) { <-release }).
		Return(nimal(), nil)

	sess := New(storage, remote)
	require.NoError(t, sess.Login(ctx, nimal()))
	require.NoError(t, sess.Logout())

	close(release)
	sess.Wait()

	assert.False(t, sess.IsLoggedIn())
	_, err := storage.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestContext_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	address := "12 Temple Road"
	update := farmer.ProfileUpdate{Address: &address}

	t.Run("Success merges the stored row", func(t *testing.T) {
		storage := tempStorage(t)
		remote := new(MockRemote)
		remote.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("offline"))

		updated := nimal()
		updated.Address = address
		remote.On("UpdateProfile", ctx, int64(1), update).Return(updated, nil)

		sess := New(storage, remote)
		require.NoError(t, sess.Login(ctx, nimal()))
		sess.Wait()

		f, err := sess.UpdateProfile(ctx, update)
		require.NoError(t, err)
		assert.Equal(t, address, f.Address)
		assert.Equal(t, address, sess.Current().Address)

		stored, err := storage.Load()
		require.NoError(t, err)
		assert.Equal(t, address, stored.Address)
	})

	t.Run("Failure keeps local state", func(t *testing.T) {
		remote := new(MockRemote)
		remote.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("offline"))
		remote.On("UpdateProfile", ctx, int64(1), update).Return(nil, errors.New("rejected"))

		sess := New(tempStorage(t), remote)
		require.NoError(t, sess.Login(ctx, nimal()))
		sess.Wait()

		_, err := sess.UpdateProfile(ctx, update)
		assert.EqualError(t, err, "rejected")
		assert.Empty(t, sess.Current().Address)
	})

	t.Run("Logged out", func(t *testing.T) {
		sess := New(tempStorage(t), new(MockRemote))

		_, err := sess.UpdateProfile(ctx, update)
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	})
}
