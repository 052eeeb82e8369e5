package pack

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/dsl"
	"sys2/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadLexicographicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.sys2", "assert beta isA letter\n")
	writeFile(t, dir, "a.sys2", "assert alpha isA letter\n")
	writeFile(t, dir, "notes.txt", "ignored\n")

	stmts, errs, err := Load(dir, dsl.NewParser(true), true)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, stmts, 2)
	assert.Equal(t, "alpha", stmts[0].Fact.Subject)
	assert.Equal(t, "beta", stmts[1].Fact.Subject)
}

func TestLoadIndexOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sys2", "assert alpha isA letter\n")
	writeFile(t, dir, "b.sys2", "assert beta isA letter\n")
	writeFile(t, dir, "index", "load \"b.sys2\"\nload \"a.sys2\"\n")

	stmts, errs, err := Load(dir, dsl.NewParser(true), true)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, stmts, 2)
	assert.Equal(t, "beta", stmts[0].Fact.Subject)
	assert.Equal(t, "alpha", stmts[1].Fact.Subject)
}

func TestLoadMissingIndexedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index", "load \"gone.sys2\"\n")

	_, _, err := Load(dir, dsl.NewParser(true), true)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindIO), "got %v", err)

	stmts, errs, err := Load(dir, dsl.NewParser(true), false)
	require.NoError(t, err)
	assert.Empty(t, stmts)
	require.Len(t, errs, 1)
	assert.Equal(t, types.KindIO, errs[0].Kind)
}

func TestLoadIndexRejectsNonLoadDirectives(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index", "assert sneaky isA statement\n")
	_, _, err := Load(dir, dsl.NewParser(true), true)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindParse), "got %v", err)
}

func TestWatcherFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sys2", "assert alpha isA letter\n")

	changed := make(chan struct{}, 1)
	w, err := Watch(dir, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, dir, "a.sys2", "assert alpha isA symbol\n")
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire within 5s")
	}
}
