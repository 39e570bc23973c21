package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	root := writeDocs(t, map[string]string{FILE_MODELS: "Post: {}\n"})
	dir := NewLoader(root).Dir("blog")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	require.NoError(t, Watch(ctx, []string{dir}, 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, FILE_MODELS), []byte("Post: {}\nTag: {}\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		assert.Fail(t, "未收到配置变更通知")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, time.Millisecond, func() {})
	assert.Error(t, err)
}
