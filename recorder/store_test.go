package recorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automoto/ld51/action"
)

type memItems struct {
	items map[string][]byte
	err   error
}

func newMemItems() *memItems {
	return &memItems{items: make(map[string][]byte)}
}

func (m *memItems) LoadItem(key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items[key], nil
}

func (m *memItems) SaveItem(key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.items[key] = data
	return nil
}

func TestStoreSaveLoad(t *testing.T) {
	items := newMemItems()
	store := NewStore(items)

	src := New()
	src.Record(0, action.BlasterPlace(1, 2))
	src.Record(7, action.SellTurret(1, 2))
	require.NoError(t, store.Save("first-run", src, 99))
	assert.Contains(t, items.items, "replay_first-run")

	dst := New()
	seed, err := store.Load("first-run", dst)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), seed)
	assert.Equal(t, src.Records(), dst.Records())
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(newMemItems())
	_, err := store.Load("nothing", New())
	assert.ErrorIs(t, err, ErrNoRecording)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(newMemItems())
	require.NoError(t, store.Save("gone", New(), 1))
	require.NoError(t, store.Delete("gone"))

	_, err := store.Load("gone", New())
	assert.ErrorIs(t, err, ErrNoRecording)
}

func TestStoreLoadCorrupt(t *testing.T) {
	items := newMemItems()
	store := NewStore(items)
	rec := New()
	rec.Record(3, action.GamePause())
	rec.Record(4, action.WavePlace(0, 0))
	before := rec.Records()

	items.items["replay_junk"] = []byte("{not json")
	_, err := store.Load("junk", rec)
	assert.ErrorIs(t, err, ErrCorruptRecording)

	items.items["replay_future"] = []byte(`{"version":9,"log":""}`)
	_, err = store.Load("future", rec)
	assert.ErrorIs(t, err, ErrCorruptRecording)

	// Valid JSON around a truncated log.
	items.items["replay_short"] = []byte(`{"version":1,"log":"AgAAAA=="}`)
	_, err = store.Load("short", rec)
	assert.ErrorIs(t, err, ErrCorruptRecording)

	assert.Equal(t, before, rec.Records())
}

func TestStoreRejectsBadNames(t *testing.T) {
	store := NewStore(newMemItems())
	for _, name := range []string{"", "../etc", "a b", string(make([]byte, 65))} {
		assert.Error(t, store.Save(name, New(), 0), name)
		_, err := store.Load(name, New())
		assert.Error(t, err, name)
		assert.Error(t, store.Delete(name), name)
	}
}

func TestStorePropagatesBackendErrors(t *testing.T) {
	items := newMemItems()
	items.err = errors.New("disk full")
	store := NewStore(items)

	assert.ErrorContains(t, store.Save("x", New(), 0), "disk full")
	_, err := store.Load("x", New())
	assert.ErrorContains(t, err, "disk full")
}
