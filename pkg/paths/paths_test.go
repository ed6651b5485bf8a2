package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFile(t *testing.T) {
	tests := []struct {
		name     string
		envSetup map[string]string
		want     func() string
	}{
		{
			name:     "explicit ARIAMOVE_CONFIG wins",
			envSetup: map[string]string{EnvConfig: "/etc/ariamove.toml", EnvXDGConfigHome: "/xdg"},
			want:     func() string { return "/etc/ariamove.toml" },
		},
		{
			name:     "XDG_CONFIG_HOME",
			envSetup: map[string]string{EnvConfig: "", EnvXDGConfigHome: "/xdg"},
			want:     func() string { return filepath.Join("/xdg", "ariamove", "config.toml") },
		},
		{
			name:     "tilde in ARIAMOVE_CONFIG",
			envSetup: map[string]string{EnvConfig: "~/am.toml"},
			want: func() string {
				home, _ := os.UserHomeDir()
				return filepath.Join(home, "am.toml")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envSetup {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want(), ConfigFile())
		})
	}
}

func TestLogFileUsesStateHome(t *testing.T) {
	state := t.TempDir()
	t.Setenv(EnvXDGStateHome, state)

	assert.Equal(t, filepath.Join(state, "ariamove", "ariamove.log"), LogFile())
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()

	assert.Equal(t, "", ExpandHome(""))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "x", "y"), ExpandHome("~/x/y"))
	assert.Equal(t, "~other/x", ExpandHome("~other/x"))
}
