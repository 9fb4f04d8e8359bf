//go:build unix

package local

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBackend_ReportsFileOwner(t *testing.T) {
	current, err := user.LookupId(strconv.Itoa(os.Getuid()))
	if err != nil {
		t.Skipf("current user has no account entry: %v", err)
	}

	b, root := newTestBackend(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "mine"), nil, 0o644))

	st, err := b.Stat(context.Background(), filePath("/mine"))
	require.NoError(t, err)
	require.Equal(t, current.Username, st.Owner)
	require.NotEmpty(t, st.Group)
}
