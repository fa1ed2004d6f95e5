package ir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

func createTestModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	goMod := "module test.example/callgraph\n\ngo 1.22\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0644))

	mainSrc := `package main

func main() {
	hello()
}

func hello() {
	internal()
}

func internal() {}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(mainSrc), 0644))
	return dir
}

func TestLoadModule(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}
	dir := createTestModule(t)

	p, err := Load(context.Background(), []string{"."}, LoadOptions{Dir: dir})
	require.NoError(t, err)

	entries, err := p.EntryPoints()
	require.NoError(t, err)
	main := symbolNamed(t, entries, "test.example/callgraph.main")
	assert.Equal(t, models.Module{Name: "test.example/callgraph", Version: DevelVersion}, main.Module)

	body, err := p.Body(main)
	require.NoError(t, err)
	hello := symbolNamed(t, callTargets(body), "test.example/callgraph.hello")
	assert.Equal(t, models.KindConcrete, hello.Kind)
}

func TestFindMainModule(t *testing.T) {
	dir := createTestModule(t)
	sub := filepath.Join(dir, "internal", "deep")
	require.NoError(t, os.MkdirAll(sub, 0755))

	m, err := FindMainModule(sub)
	require.NoError(t, err)
	assert.Equal(t, "test.example/callgraph", m.Name)
	assert.Equal(t, DevelVersion, m.Version)
}

func TestModuleResolver(t *testing.T) {
	r := NewModuleResolver(models.Module{Name: "example.com/app"})
	assert.Equal(t, models.Module{Name: "example.com/app", Version: DevelVersion}, r.Main())
	assert.Equal(t, r.Main(), r.Resolve("example.com/app/internal/store", false))
	assert.Equal(t, StdModule, r.Resolve("fmt", true).Name)
	assert.Equal(t, models.Module{Name: "example.org/other", Version: UnknownVersion}, r.Resolve("example.org/other", false))
}
