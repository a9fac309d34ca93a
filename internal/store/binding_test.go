package store

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestBindingRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	up := &Binding{ID: "b1", Gesture: "cursor", EventType: "fired", Trigger: intp(1),
		PluginName: "keyboard", ActionName: "press", Config: json.RawMessage(`{"key":"up"}`), Enabled: true}
	anyShaka := &Binding{ID: "b2", Gesture: "shaka", EventType: "began",
		PluginName: "keyboard", ActionName: "press", Enabled: true}
	disabled := &Binding{ID: "b3", Gesture: "cursor", EventType: "fired", Trigger: intp(1),
		PluginName: "keyboard", ActionName: "press", Enabled: false}

	for _, b := range []*Binding{up, anyShaka, disabled} {
		require.NoError(t, repo.Create(b))
	}

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID("b1")
		require.NoError(t, err)
		require.NotNil(t, got.Trigger)
		assert.Equal(t, 1, *got.Trigger)
		assert.JSONEq(t, `{"key":"up"}`, string(got.Config))

		got, err = repo.GetByID("b2")
		require.NoError(t, err)
		assert.Nil(t, got.Trigger)
		assert.Equal(t, "{}", string(got.Config))

		_, err = repo.GetByID("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("match", func(t *testing.T) {
		got, err := repo.Match("cursor", "fired", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b1", got[0].ID)

		got, err = repo.Match("cursor", "fired", 2)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = repo.Match("shaka", "began", -1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("update", func(t *testing.T) {
		disabled.Enabled = true
		disabled.Trigger = nil
		require.NoError(t, repo.Update(disabled))

		got, err := repo.Match("cursor", "fired", 4)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b3", got[0].ID)

		assert.ErrorIs(t, repo.Update(&Binding{ID: "missing"}), ErrNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		all, err := repo.List()
		require.NoError(t, err)
		assert.Len(t, all, 3)

		require.NoError(t, repo.Delete("b2"))
		assert.ErrorIs(t, repo.Delete("b2"), ErrNotFound)
	})
}
