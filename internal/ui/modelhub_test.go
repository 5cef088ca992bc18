package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelops/internal/lifecycle"
	"modelops/internal/store"
)

func newTestHub(t *testing.T) (*ModelHubView, *lifecycle.Registry, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir(), store.WithDebounce(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := lifecycle.NewRegistry()
	v := NewModelHubView(NewStyles(), reg, st)
	v.Update(catalogLoadedMsg{Catalog: testCatalog()})
	return v, reg, st
}

func TestDeployableKeysExcludeAlwaysAvailable(t *testing.T) {
	v, _, _ := newTestHub(t)
	assert.Equal(t, []string{"qwen", "custom"}, v.DeployableKeys())
}

func TestHubItemsReflectRegistry(t *testing.T) {
	v, reg, _ := newTestHub(t)
	reg.Set("qwen", lifecycle.ModelStatus{Status: lifecycle.StatusDeployed})
	v.Update(statusMergedMsg{})

	var found bool
	for _, it := range v.list.Items() {
		hi, ok := it.(hubItem)
		require.True(t, ok)
		if hi.desc.Key == "qwen" {
			found = true
			assert.Contains(t, hi.Title(), "deployed")
		}
	}
	assert.True(t, found)
}

func TestBulkDeployKeyTargetsCheckedDeployableModels(t *testing.T) {
	v, _, _ := newTestHub(t)
	v.chosen["claude"] = true
	v.chosen["qwen"] = true
	v.chosen["custom"] = true

	cmd := v.Update(keyPress("D"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(deployBatchRequestedMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"qwen", "custom"}, msg.Keys)
}

func TestBulkDeployKeyIgnoredWithoutDeployableSelection(t *testing.T) {
	v, _, _ := newTestHub(t)
	v.chosen["claude"] = true

	assert.Nil(t, v.Update(keyPress("D")))
}

func TestSelectionSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(dir, store.WithDebounce(0))
	require.NoError(t, err)

	reg := lifecycle.NewRegistry()
	v := NewModelHubView(NewStyles(), reg, st)
	v.Update(catalogLoadedMsg{Catalog: testCatalog()})

	v.chosen["qwen"] = true
	v.persistSelection()
	require.NoError(t, st.Close())

	st2, err := store.New(dir, store.WithDebounce(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st2.Close() })

	v2 := NewModelHubView(NewStyles(), reg, st2)
	v2.Update(catalogLoadedMsg{Catalog: testCatalog()})
	assert.Equal(t, []string{"qwen"}, v2.SelectedKeys())
}

func TestDropRemovesModelEverywhere(t *testing.T) {
	v, _, st := newTestHub(t)
	v.chosen["qwen"] = true
	v.persistSelection()

	v.Drop("qwen")

	assert.NotContains(t, v.DeployableKeys(), "qwen")
	assert.Empty(t, v.SelectedKeys())

	var keys []string
	st.Get(store.NSModelHub, selectionKey, &keys)
	assert.NotContains(t, keys, "qwen")
}

func TestHubCatalogErrorState(t *testing.T) {
	st, err := store.New(t.TempDir(), store.WithDebounce(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	v := NewModelHubView(NewStyles(), lifecycle.NewRegistry(), st)
	v.Update(catalogLoadedMsg{Err: assert.AnError})

	assert.True(t, v.Failed())
	assert.Contains(t, v.View(80, 24), "model list unavailable")
}
