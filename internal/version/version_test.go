package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPrefersLdflags(t *testing.T) {
	saved := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = saved[0], saved[1], saved[2] })

	Version, Commit, Date = "1.2.3", "0123456789abcdef0123", "2026-01-02"
	info := Get()

	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "0123456789abcdef0123", info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.String(), "commit 0123456789ab,")
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc", shortCommit("abc"))
	assert.Equal(t, "0123456789ab", shortCommit("0123456789abcdef"))
}
