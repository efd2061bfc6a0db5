package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisBuilder(t *testing.T) {
	tests := []struct {
		name     string
		contexts []string
		want     string
	}{
		{
			name:     "with knowledge base",
			contexts: []string{"Budget is required.", "Owner is required."},
			want: "INSTR\n" +
				"Knowledge Base  (use this to understand what data is needed):\n" +
				"Budget is required.\n\nOwner is required.\n\n" +
				"Communication Dump to Analyze:\nhello",
		},
		{
			name: "no context omits the section",
			want: "INSTR\nCommunication Dump to Analyze:\nhello",
		},
		{
			name:     "blank chunks count as no context",
			contexts: []string{"  ", ""},
			want:     "INSTR\nCommunication Dump to Analyze:\nhello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAnalysisBuilder("INSTR").WithContext(tt.contexts).WithQuery("hello").Build()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRecordPrompt(t *testing.T) {
	got := BuildRecordPrompt("Write stories.", `{"name":"Acme"}`)
	assert.Equal(t, "Write stories. Json File with infomation:\n{\"name\":\"Acme\"}", got)
}

func TestDefaultsCoverEveryTemplate(t *testing.T) {
	r := Defaults()
	for _, name := range []string{Input, GetJSON, Clarification, UserStories, BusinessRules, FunctionalRequirements, InceptionBrief} {
		assert.NotEmpty(t, r.Get(name), name)
		assert.Equal(t, "default", r.Source(name))
	}
	assert.Contains(t, r.Get(Input), "MISSING DATA:")
	assert.Contains(t, r.Get(Input), "QUESTIONS FOR CLARIFICATION:")
}

func TestLoadOverridesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input_prompt.txt"), []byte("  custom input  \n"), 0o644))
	// empty files fall back to the default
	require.NoError(t, os.WriteFile(filepath.Join(dir, "business_rules.txt"), []byte("\n"), 0o644))

	r, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "custom input", r.Get(Input))
	assert.Equal(t, filepath.Join(dir, "input_prompt.txt"), r.Source(Input))
	assert.Equal(t, "default", r.Source(BusinessRules))
	assert.True(t, strings.HasPrefix(r.Get(UserStories), "Write agile user stories"))
}

func TestLoadHonoursCustomManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := "version: v1\ntemplates:\n  user_stories: stories.md\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stories.md"), []byte("stories from md"), 0o644))

	r, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "stories from md", r.Get(UserStories))
}

func TestLoadMissingDirectoryKeepsDefaults(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Get(Input), r.Get(Input))
}

func TestParseManifestRejectsEmpty(t *testing.T) {
	_, err := ParseManifest([]byte("version: v1\n"))
	assert.Error(t, err)
	_, err = ParseManifest([]byte("templates: [1, 2"))
	assert.Error(t, err)
}

func TestAnalysisInstructionAppendsClarificationGuidance(t *testing.T) {
	r := Defaults()
	got := r.AnalysisInstruction()
	assert.True(t, strings.HasPrefix(got, r.Get(Input)+"\n\n"))
	assert.True(t, strings.HasSuffix(got, r.Get(Clarification)))
}
