package browser

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/assistant"
)

// newTestRegistry builds a registry whose tabs are plain records instead of
// live browser targets.
func newTestRegistry(t *testing.T) (*Registry, *[]string) {
	t.Helper()
	var activated []string

	r := &Registry{focused: -1, logger: zap.NewNop()}
	r.newTab = func(_ context.Context, url string) (*Tab, error) {
		return &Tab{url: url, title: fmt.Sprintf("Page at %s", url)}, nil
	}
	r.activate = func(_ context.Context, tab *Tab) error {
		activated = append(activated, tab.title)
		return nil
	}
	return r, &activated
}

func TestRegistryOpenTab(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	ctx := context.Background()

	info, err := r.OpenTab(ctx, "https://a.example")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Index)
	assert.Equal(t, "https://a.example", info.URL)

	// A second tab is appended and becomes the focused one.
	info, err = r.OpenTab(ctx, "https://b.example")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Index)

	tabs, err := r.Tabs(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, "https://a.example", tabs[0].URL)
	assert.Equal(t, "https://b.example", tabs[1].URL)
}

func TestRegistrySwitchTab(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*Registry, *[]string) {
		r, activated := newTestRegistry(t)
		ctx := context.Background()
		for _, url := range []string{"https://dashboard.example", "https://applicants.example", "https://jobs.example"} {
			_, err := r.OpenTab(ctx, url)
			require.NoError(t, err)
		}
		return r, activated
	}

	t.Run("by index", func(t *testing.T) {
		t.Parallel()
		r, activated := setup(t)

		info, err := r.SwitchTab(context.Background(), assistant.TabTarget{Index: 0})
		require.NoError(t, err)
		assert.Equal(t, 0, info.Index)
		assert.Equal(t, []string{"Page at https://dashboard.example"}, *activated)
	})

	t.Run("index out of range", func(t *testing.T) {
		t.Parallel()
		r, _ := setup(t)

		_, err := r.SwitchTab(context.Background(), assistant.TabTarget{Index: 3})
		assert.ErrorIs(t, err, ErrTabIndexOutOfRange)
	})

	t.Run("by title fragment is case-insensitive", func(t *testing.T) {
		t.Parallel()
		r, _ := setup(t)

		info, err := r.SwitchTab(context.Background(), assistant.TabTarget{Index: -1, Title: "APPLICANTS"})
		require.NoError(t, err)
		assert.Equal(t, 1, info.Index)
	})

	t.Run("title tie goes to the earliest tab", func(t *testing.T) {
		t.Parallel()
		r, _ := setup(t)

		// Every test tab title contains "example".
		info, err := r.SwitchTab(context.Background(), assistant.TabTarget{Index: -1, Title: "example"})
		require.NoError(t, err)
		assert.Equal(t, 0, info.Index)
	})

	t.Run("unknown title", func(t *testing.T) {
		t.Parallel()
		r, _ := setup(t)

		_, err := r.SwitchTab(context.Background(), assistant.TabTarget{Index: -1, Title: "billing"})
		assert.ErrorIs(t, err, ErrTabNotFound)
	})

	t.Run("empty registry", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestRegistry(t)

		_, err := r.SwitchTab(context.Background(), assistant.TabTarget{Index: 0})
		assert.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestRegistryCurrent(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)

	_, err := r.Current()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = r.OpenTab(context.Background(), "https://a.example")
	require.NoError(t, err)

	_, err = r.Current()
	assert.NoError(t, err)
}

func TestRegistryEnsureOpensFirstTab(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)

	_, err := r.Ensure(context.Background())
	require.NoError(t, err)

	tabs, err := r.Tabs(context.Background())
	require.NoError(t, err)
	assert.Len(t, tabs, 1)
}
