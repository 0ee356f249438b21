package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOriginAllowed(t *testing.T) {
	whitelist := []string{"127.0.0.1", "::1", "192.168.1.0/24", "not-an-ip", "10.0.0.0/badmask"}

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.1.77", true},
		{"::ffff:192.168.1.5", true},
		{"192.168.2.1", false},
		{"10.0.0.1", false},
		{"not-an-ip", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOriginAllowed(tt.ip, whitelist))
		})
	}
}

func TestIsOriginAllowedEmptyWhitelist(t *testing.T) {
	assert.False(t, IsOriginAllowed("127.0.0.1", nil))
}
