package buildcfg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdcrl/sweepbench/internal/fsutil"
)

const kernelSource = `#include <vector>

#define NUM_THREADS 16
#define ALPHA 4
#define BETA 8
#define USE_PRIORITY_MAIN_QUEUE 0

int main() { return 0; }
`

func TestSetMacro(t *testing.T) {
	tests := []struct {
		name  string
		macro string
		value string
		want  string
	}{
		{"integer value", "ALPHA", "12", "#define ALPHA 12"},
		{"zero value", "USE_PRIORITY_MAIN_QUEUE", "0", "#define USE_PRIORITY_MAIN_QUEUE 0"},
		{"same value is idempotent", "BETA", "8", "#define BETA 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsutil.NewMemoryFileSystem()
			require.NoError(t, fs.WriteFile("main.cpp", []byte(kernelSource), 0644))

			require.NoError(t, SetMacro(fs, "main.cpp", tt.macro, tt.value))

			data, err := fs.ReadFile("main.cpp")
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want+"\n")
		})
	}
}

func TestSetMacroPreservesOtherLines(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("main.cpp", []byte(kernelSource), 0644))

	require.NoError(t, SetMacro(fs, "main.cpp", "ALPHA", "30"))

	data, err := fs.ReadFile("main.cpp")
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "#include <vector>\n")
	assert.Contains(t, got, "#define NUM_THREADS 16\n")
	assert.Contains(t, got, "#define BETA 8\n")
	assert.Contains(t, got, "int main() { return 0; }\n")
}

func TestSetMacroDoesNotMatchPrefixes(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("main.cpp", []byte(kernelSource), 0644))

	// ALPHA must not rewrite the USE_PRIORITY_MAIN_QUEUE or BETA lines,
	// and BETA must not rewrite ALPHA.
	require.NoError(t, SetMacro(fs, "main.cpp", "ALPHA", "2"))
	require.NoError(t, SetMacro(fs, "main.cpp", "BETA", "4"))

	data, err := fs.ReadFile("main.cpp")
	require.NoError(t, err)
	assert.Contains(t, string(data), "#define ALPHA 2\n")
	assert.Contains(t, string(data), "#define BETA 4\n")
	assert.Contains(t, string(data), "#define USE_PRIORITY_MAIN_QUEUE 0\n")
}

func TestSetMacroRepeatedApplication(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("main.cpp", []byte(kernelSource), 0644))

	require.NoError(t, SetMacro(fs, "main.cpp", "NUM_THREADS", "26"))
	first, err := fs.ReadFile("main.cpp")
	require.NoError(t, err)

	require.NoError(t, SetMacro(fs, "main.cpp", "NUM_THREADS", "26"))
	second, err := fs.ReadFile("main.cpp")
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestSetMacroNoMatch(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("main.cpp", []byte(kernelSource), 0644))

	err := SetMacro(fs, "main.cpp", "GAMMA", "3")
	require.Error(t, err)

	var merr *MutationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "main.cpp", merr.Path)
	assert.Equal(t, 0, merr.Matches)
}

func TestSetMacroMultipleMatches(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	src := "#define ALPHA 4\n#define ALPHA 8\n"
	require.NoError(t, fs.WriteFile("main.cpp", []byte(src), 0644))

	err := SetMacro(fs, "main.cpp", "ALPHA", "2")
	var merr *MutationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 2, merr.Matches)

	// The ambiguous file is left untouched.
	data, err2 := fs.ReadFile("main.cpp")
	require.NoError(t, err2)
	assert.Equal(t, src, string(data))
}

func TestSetMacroMissingFile(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	err := SetMacro(fs, "absent.cpp", "ALPHA", "2")
	require.Error(t, err)

	var merr *MutationError
	assert.False(t, errors.As(err, &merr), "IO failures are not mutation errors")
}

func TestSetActiveSource(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	makefile := "CXX = g++\nMAIN_SRC = main.cpp\n\nall:\n\t$(CXX) $(MAIN_SRC)\n"
	require.NoError(t, fs.WriteFile("Makefile", []byte(makefile), 0644))

	require.NoError(t, SetActiveSource(fs, "Makefile", "barrier_main.cpp"))

	data, err := fs.ReadFile("Makefile")
	require.NoError(t, err)
	assert.Contains(t, string(data), "MAIN_SRC = barrier_main.cpp\n")
	assert.Contains(t, string(data), "CXX = g++\n")
	// The recipe line that merely references the variable is untouched.
	assert.Contains(t, string(data), "$(CXX) $(MAIN_SRC)\n")
}

func TestSetActiveSourceNoAssignment(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("Makefile", []byte("all:\n\tg++ main.cpp\n"), 0644))

	err := SetActiveSource(fs, "Makefile", "main.cpp")
	var merr *MutationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "MAIN_SRC", merr.Target)
	assert.Equal(t, 0, merr.Matches)
}

func TestBuildConfigurationMaterialize(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("main.cpp", []byte(kernelSource), 0644))
	require.NoError(t, fs.WriteFile("Makefile", []byte("MAIN_SRC = main.cpp\n"), 0644))

	cfg := BuildConfiguration{
		Source: "barrier_main.cpp",
		Macros: []Macro{
			{Name: "NUM_THREADS", Value: "52"},
			{Name: "ALPHA", Value: "6"},
			{Name: "BETA", Value: "12"},
		},
	}
	require.NoError(t, cfg.Materialize(fs, "main.cpp", "Makefile"))

	src, err := fs.ReadFile("main.cpp")
	require.NoError(t, err)
	assert.Contains(t, string(src), "#define NUM_THREADS 52\n")
	assert.Contains(t, string(src), "#define ALPHA 6\n")
	assert.Contains(t, string(src), "#define BETA 12\n")

	mk, err := fs.ReadFile("Makefile")
	require.NoError(t, err)
	assert.Equal(t, "MAIN_SRC = barrier_main.cpp\n", string(mk))
}

func TestBuildConfigurationMaterializeStopsOnError(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("main.cpp", []byte(kernelSource), 0644))

	cfg := BuildConfiguration{
		Macros: []Macro{
			{Name: "GAMMA", Value: "1"},
			{Name: "ALPHA", Value: "16"},
		},
	}
	err := cfg.Materialize(fs, "main.cpp", "Makefile")

	var merr *MutationError
	require.True(t, errors.As(err, &merr))

	// ALPHA was never applied.
	data, err2 := fs.ReadFile("main.cpp")
	require.NoError(t, err2)
	assert.Contains(t, string(data), "#define ALPHA 4\n")
}
