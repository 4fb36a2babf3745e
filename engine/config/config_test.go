package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
policy: explicit
groups:
  - name: head
    prefix: Body
    suffix: Head
  - name: right_arm
    prefix: Body
    suffix: Right Arm Upper
clips:
  - name: aim
    groups: [right_arm]
`

const tomlConfig = `
policy = "full"

[[groups]]
name = "head"
prefix = "Body"
suffix = "Head"

[[groups]]
name = "right_arm"
prefix = "Body"
suffix = "Right Arm Upper"

[[clips]]
name = "aim"
groups = ["right_arm"]
`

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(yamlConfig), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "explicit", cfg.Policy)
	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, GroupConfig{Name: "right_arm", Prefix: "Body", Suffix: "Right Arm Upper"}, cfg.Groups[1])
	assert.Equal(t, []ClipConfig{{Name: "aim", Groups: []string{"right_arm"}}}, cfg.Clips)
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse([]byte(tomlConfig), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Policy)
	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, "Head", cfg.Groups[0].Suffix)
	assert.Equal(t, []string{"right_arm"}, cfg.Clips[0].Groups)
}

func TestResolveConcreteTable(t *testing.T) {
	cfg, err := Parse([]byte(yamlConfig), FormatYAML)
	require.NoError(t, err)

	table, options, err := cfg.Resolve()
	require.NoError(t, err)

	want := mask.NewTargetSet(
		mask.ParseBonePath("Body").ID(),
		mask.ParseBonePath("Body/Head").ID(),
		mask.ParseBonePath("Body/Right Arm Upper").ID(),
	)
	assert.True(t, want.Equal(table.TargetSet()))
	assert.False(t, table.TargetSet().Contains(mask.ParseBonePath("Body/Left Arm Upper").ID()))

	g, err := blend.NewGraph(table, []string{"idle", "aim"}, options...)
	require.NoError(t, err)
	assert.Equal(t, mask.MaskOfGroups(1), g.Clips()[1].Mask)
}

func TestResolveErrors(t *testing.T) {
	cfg := Default()
	cfg.Clips = append(cfg.Clips, ClipConfig{Name: "wag", Groups: []string{"tail"}})
	_, _, err := cfg.Resolve()
	assert.ErrorIs(t, err, mask.ErrUnknownGroup)

	cfg = Default()
	cfg.Policy = "sometimes"
	_, _, err = cfg.Resolve()
	assert.Error(t, err)

	cfg = Default()
	cfg.Groups[1].Name = cfg.Groups[0].Name
	_, _, err = cfg.Resolve()
	assert.ErrorIs(t, err, mask.ErrDuplicateGroup)
}

func TestDefault(t *testing.T) {
	table, options, err := Default().Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"head", "right_arm", "left_arm", "right_leg", "left_leg", "torso"}, table.Names())
	assert.NotEmpty(t, options)

	// a limb owns the shared root and each joint down its chain
	g, ok := table.Index("right_leg")
	require.True(t, ok)
	assert.Len(t, table.Chain(g), 4)
}

func TestFormatRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML} {
		data, err := Default().Marshal(format)
		require.NoError(t, err)
		cfg, err := Parse(data, format)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "masks.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlConfig), 0o644))
	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, cfg.Groups, 2)

	tomlPath := filepath.Join(dir, "masks.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlConfig), 0o644))
	cfg, err = Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "full", cfg.Policy)

	_, err = Load(filepath.Join(dir, "masks.json"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Parse(nil, Format(9))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWatcherDeliversReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "masks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))

	reloads := make(chan *Config, 8)
	w, err := NewWatcher(path, func(cfg *Config) { reloads <- cfg })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// an invalid file is logged and skipped
	require.NoError(t, os.WriteFile(path, []byte("groups: [unterminated"), 0o644))

	cfg := Default()
	data, err := cfg.Marshal(FormatYAML)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-reloads:
			if len(got.Groups) != len(cfg.Groups) || len(got.Clips) != len(cfg.Clips) {
				continue
			}
			assert.Equal(t, cfg, got)
			cancel()
			assert.ErrorIs(t, <-done, context.Canceled)
			return
		case <-deadline:
			cancel()
			t.Fatal("no reload delivered")
		}
	}
}

func TestNewWatcherRejectsUnknownFormat(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "masks.ini"), func(*Config) {})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
