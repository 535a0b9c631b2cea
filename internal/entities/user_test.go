package entities

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{
			name:  "user",
			input: "USER",
			want:  RoleUser,
		},
		{
			name:  "admin",
			input: "ADMIN",
			want:  RoleAdmin,
		},
		{
			name:  "super",
			input: "SUPER",
			want:  RoleSuper,
		},
		{
			name:  "lower case",
			input: "admin",
			want:  RoleAdmin,
		},
		{
			name:  "surrounding whitespace",
			input: "  super ",
			want:  RoleSuper,
		},
		{
			name:    "unknown role",
			input:   "ROOT",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{
			name: "valid user",
			user: User{
				Email:        "alice@example.com",
				PasswordHash: "$argon2id$...",
				Role:         RoleUser,
			},
		},
		{
			name: "missing email",
			user: User{
				PasswordHash: "$argon2id$...",
				Role:         RoleUser,
			},
			wantErr: true,
		},
		{
			name: "missing password hash",
			user: User{
				Email: "alice@example.com",
				Role:  RoleUser,
			},
			wantErr: true,
		},
		{
			name: "unknown role",
			user: User{
				Email:        "alice@example.com",
				PasswordHash: "$argon2id$...",
				Role:         Role("ROOT"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("User.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_Sanitized(t *testing.T) {
	user := User{
		ID:           42,
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$secret",
		Role:         RoleAdmin,
		FirstName:    "Alice",
		LastName:     "Example",
	}

	got := user.Sanitized()

	if got.ID != 42 {
		t.Errorf("Sanitized().ID = %d, want 42", got.ID)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Sanitized().Email = %q, want alice@example.com", got.Email)
	}
	if got.Role != RoleAdmin {
		t.Errorf("Sanitized().Role = %v, want %v", got.Role, RoleAdmin)
	}
	if got.FirstName != "Alice" || got.LastName != "Example" {
		t.Errorf("Sanitized() profile = %q %q, want Alice Example", got.FirstName, got.LastName)
	}
}
