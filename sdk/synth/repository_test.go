package synth

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRepository(t *testing.T, dir string) (*Repository, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	r, err := NewRepository(dir, contracts.WithLogger(logger.New(zap.New(core))))
	require.NoError(t, err)
	return r, logs
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadAllSkipsBrokenDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blofeld.json", blofeld)
	writeFile(t, dir, "broken.json", `{"patches": {`)
	writeFile(t, dir, "notes.txt", "not a profile")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.json"), 0o755))

	r, logs := newTestRepository(t, dir)
	profiles, err := r.LoadAll()
	require.NoError(t, err)

	require.Len(t, profiles, 1)
	assert.Contains(t, profiles, "blofeld")
	assert.Equal(t, []string{"blofeld"}, r.List())

	loadErrs := r.LoadErrors()
	require.Len(t, loadErrs, 1)
	var parseErr *ParseError
	require.ErrorAs(t, loadErrs[0], &parseErr)
	assert.Equal(t, filepath.Join(dir, "broken.json"), parseErr.Path)
	assert.Equal(t, 1, logs.FilterMessage("Error loading profile").Len())
}

func TestLoadAllCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "synthctl", "configs")
	r, _ := newTestRepository(t, dir)

	profiles, err := r.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, profiles)
	assert.DirExists(t, dir)
}

func TestLoadAllFailsOnUnreadableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	r, _ := newTestRepository(t, path)

	_, err := r.LoadAll()
	assert.Error(t, err)
}

func TestLoadAllReplacesContents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"model": "A"}`)
	writeFile(t, dir, "b.json", `{"model": "B"}`)
	r, _ := newTestRepository(t, dir)
	_, err := r.LoadAll()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.json")))
	_, err = r.LoadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, r.List())
	_, ok := r.Get("b")
	assert.False(t, ok)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, _ := newTestRepository(t, dir)

	p := mustParse(t, blofeld)
	require.NoError(t, p.SetPatch(DefaultPatchType, "Added", HexValue(0x30)))
	require.NoError(t, r.Save("blofeld", p))

	got, ok := r.Get("blofeld")
	require.True(t, ok)
	assert.Same(t, p, got)

	data, err := os.ReadFile(filepath.Join(dir, "blofeld.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `  "manufacturer": "Waldorf"`)
	assert.Contains(t, string(data), `"Zeta Pad": "0x1A"`)

	reloaded, _ := newTestRepository(t, dir)
	profiles, err := reloaded.LoadAll()
	require.NoError(t, err)
	require.Contains(t, profiles, "blofeld")
	assert.Equal(t,
		[]string{"Zeta Pad", "Alpha Bass", "Mid Lead", "Added"},
		slices.Collect(profiles["blofeld"].PatchNames(DefaultPatchType)))
	v, ok := profiles["blofeld"].PatchValue("Added", DefaultPatchType)
	require.True(t, ok)
	assert.Equal(t, 0x30, v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	r, _ := newTestRepository(t, path)

	err := r.Save("blofeld", mustParse(t, blofeld))

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "blofeld", persistErr.Name)
	_, ok := r.Get("blofeld")
	assert.False(t, ok)
}

func TestSaveRejectsPathNames(t *testing.T) {
	r, _ := newTestRepository(t, t.TempDir())

	for _, name := range []string{"", "../escape", "sub/dir", ".hidden"} {
		err := r.Save(name, NewProfile("", "", 0))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("synthctl", "configs"), filepath.Join(filepath.Base(filepath.Dir(dir)), filepath.Base(dir)))
}
