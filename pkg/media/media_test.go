package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlatform(t *testing.T) {
	cases := []struct {
		raw  string
		code string
		ok   bool
	}{
		{"HTML5", "web", true},
		{"browser", "web", true},
		{"Playable in browser", "web", true},
		{"web", "web", true},
		{"win", "windows", true},
		{"Windows", "windows", true},
		{"GNU/Linux", "linux", true},
		{"osx", "mac", true},
		{"macOS", "mac", true},
		{"android", "android", true},
		{"iOS", "ios", true},
		{"xbox", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		code, ok := NormalizePlatform(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		assert.Equal(t, tc.code, code, "raw=%q", tc.raw)
	}
}

func TestNormalizePlatformsDedup(t *testing.T) {
	codes := NormalizePlatforms([]string{"HTML5", "browser", "web", "xbox", "windows"})
	assert.Equal(t, []string{"web", "windows"}, codes)
}

func TestCleanTag(t *testing.T) {
	name, ok := CleanTag("  Cozy ")
	assert.True(t, ok)
	assert.Equal(t, "cozy", name)

	_, ok = CleanTag("   ")
	assert.False(t, ok)
}

func TestValidCode(t *testing.T) {
	for _, c := range AllCodes() {
		assert.True(t, ValidCode(string(c)))
	}
	assert.False(t, ValidCode("podcast"))
}
