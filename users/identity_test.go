package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-auth-client/users"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentityPrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want users.Identity
	}{
		{
			name: "student with nim and full_name",
			raw:  map[string]any{"role": "mahasiswa", "full_name": "Budi Santoso", "name": "budi", "nim": "2101010001", "id": 7},
			want: users.Identity{Role: users.RoleMahasiswa, Name: "Budi Santoso", PrimaryID: "2101010001"},
		},
		{
			name: "lecturer with nip and fullName",
			raw:  map[string]any{"role": "DOSEN", "fullName": "Dr. Siti", "nip": "1985", "username": "siti"},
			want: users.Identity{Role: users.RoleDosen, Name: "Dr. Siti", PrimaryID: "1985", Username: "siti"},
		},
		{
			name: "nama beats name",
			raw:  map[string]any{"nama": "Andi", "name": "andi-login", "id": float64(42)},
			want: users.Identity{Name: "Andi", PrimaryID: "42"},
		},
		{
			name: "falls back to username",
			raw:  map[string]any{"username": "admin", "roles": []any{"admin", "dosen"}, "email": "admin@example.com"},
			want: users.Identity{Role: users.RoleAdmin, Name: "admin", PrimaryID: "admin", Username: "admin", Email: "admin@example.com"},
		},
		{
			name: "blank values are skipped",
			raw:  map[string]any{"full_name": "  ", "name": "Rina", "nim": "", "nip": "99"},
			want: users.Identity{Name: "Rina", PrimaryID: "99"},
		},
		{
			name: "decoded number keeps every digit",
			raw:  map[string]any{"role": "mahasiswa", "nim": json.Number("21010100019999999")},
			want: users.Identity{Role: users.RoleMahasiswa, PrimaryID: "21010100019999999"},
		},
		{
			name: "empty payload",
			raw:  nil,
			want: users.Identity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, users.NormalizeIdentity(tt.raw))
		})
	}
}

func TestRolePrincipalClass(t *testing.T) {
	require.Equal(t, users.ClassStaff, users.RoleAdmin.PrincipalClass())
	require.Equal(t, users.ClassStaff, users.RoleDosen.PrincipalClass())
	require.Equal(t, users.ClassMember, users.RoleMahasiswa.PrincipalClass())
	require.Equal(t, users.PrincipalClass(""), users.Role("guest").PrincipalClass())
}

func TestParsePrincipalClass(t *testing.T) {
	class, err := users.ParsePrincipalClass(" Staff ")
	require.NoError(t, err)
	require.Equal(t, users.ClassStaff, class)

	_, err = users.ParsePrincipalClass("guest")
	require.Error(t, err)
}

func TestIdentityOwns(t *testing.T) {
	identity := users.Identity{PrimaryID: "2101010001"}
	require.True(t, identity.Owns("2101010001"))
	require.False(t, identity.Owns("2101010002"))
	require.False(t, users.Identity{}.Owns(""))
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Secret123")
	require.NoError(t, err)

	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("Secret123"))
	require.False(t, u.CheckPassword("secret123"))

	require.NoError(t, users.ValidatePasswordStrength("Secret123"))
	require.Error(t, users.ValidatePasswordStrength("short"))
}
