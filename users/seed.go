package users

// SeedUser describes an account created by the development backend on
// startup. Password is plain text and hashed on insert.
type SeedUser struct {
	Username string
	Password string
	FullName string
	Role     Role
	NIM      string
	NIP      string
}

// DefaultSeedUsers returns one account per role.
func DefaultSeedUsers() []SeedUser {
	return []SeedUser{
		{Username: "admin", Password: "Admin12345", FullName: "Administrator", Role: RoleAdmin, NIP: "198001012005011001"},
		{Username: "dosen", Password: "Dosen12345", FullName: "Dr. Siti Rahmawati", Role: RoleDosen, NIP: "198502142010122002"},
		{Username: "mahasiswa", Password: "Mahasiswa123", FullName: "Budi Santoso", Role: RoleMahasiswa, NIM: "2101010001"},
	}
}

// NewUserFromSeed hashes the seed password and returns the account.
func NewUserFromSeed(seed SeedUser) (*User, error) {
	hash, err := HashPassword(seed.Password)
	if err != nil {
		return nil, err
	}
	return &User{
		Username:     seed.Username,
		PasswordHash: hash,
		FullName:     seed.FullName,
		Role:         seed.Role,
		NIM:          seed.NIM,
		NIP:          seed.NIP,
	}, nil
}
