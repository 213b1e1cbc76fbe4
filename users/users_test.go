package users_test

import (
	"testing"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/users"
	fakeuserrepo "github.com/jrsteele09/go-bizcard-client/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Secret123", false},
		{"too short", "Se1", true},
		{"no upper", "secret123", true},
		{"no lower", "SECRET123", true},
		{"no number", "SecretOnly", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := users.HashPassword("Secret123")
	require.NoError(t, err)

	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("Secret123"))
	require.False(t, u.CheckPassword("secret123"))
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	alice := &users.User{LoginID: "alice", Name: "Alice"}
	bob := &users.User{LoginID: "bob", Name: "Bob"}
	require.NoError(t, repo.Upsert(alice))
	require.NoError(t, repo.Upsert(bob))
	require.Equal(t, int64(1), alice.ID)
	require.Equal(t, int64(2), bob.ID)

	t.Run("login ids are unique", func(t *testing.T) {
		err := repo.Upsert(&users.User{LoginID: "alice", Name: "Other"})
		require.ErrorIs(t, err, errors.ErrLoginIDTaken)
	})

	t.Run("connect is symmetric", func(t *testing.T) {
		require.NoError(t, repo.Connect(alice.ID, bob.ID))
		require.NoError(t, repo.Connect(bob.ID, alice.ID))

		got, err := repo.GetByID(alice.ID)
		require.NoError(t, err)
		require.Equal(t, []int64{bob.ID}, got.Contacts)

		got, err = repo.GetByLoginID("bob")
		require.NoError(t, err)
		require.True(t, got.HasContact(alice.ID))

		require.ErrorIs(t, repo.Connect(alice.ID, 99), errors.ErrUserNotFound)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repo.GetByID(alice.ID)
		require.NoError(t, err)
		got.Name = "Mallory"

		again, err := repo.GetByID(alice.ID)
		require.NoError(t, err)
		require.Equal(t, "Alice", again.Name)
	})

	t.Run("renaming the login id frees the old one", func(t *testing.T) {
		got, err := repo.GetByID(bob.ID)
		require.NoError(t, err)
		got.LoginID = "robert"
		require.NoError(t, repo.Upsert(got))

		_, err = repo.GetByLoginID("bob")
		require.ErrorIs(t, err, errors.ErrUserNotFound)
		require.NoError(t, repo.Upsert(&users.User{LoginID: "bob", Name: "New Bob"}))
	})

	t.Run("list pages by id", func(t *testing.T) {
		list, err := repo.List(0, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, alice.ID, list[0].ID)

		list, err = repo.List(2, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "New Bob", list[0].Name)

		list, err = repo.List(5, 10)
		require.NoError(t, err)
		require.Empty(t, list)
	})
}
