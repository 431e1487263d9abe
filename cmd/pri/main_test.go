// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/pri"
)

var customID = pri.ParseIdentifier("[custom_kind]")

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func run(t *testing.T, argv ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(context.Background(), append([]string{"pri"}, argv...))
	return stdout.String(), err
}

func testFile() *pri.File {
	items := &pri.DataItem{}
	if _, err := items.AddString("hello"); err != nil {
		panic(err)
	}
	items.AddBlob([]byte{0xca, 0xfe})

	f := pri.New()
	f.AddSection(pri.Section{Data: items})
	f.AddSection(pri.Section{Qualifier: 3, Flags: 1, Data: &pri.UnknownSection{ID: customID, Data: []byte("hello")}})
	return f
}

// writeTestFile writes testFile to a fresh directory, with an isolated
// config home.
func writeTestFile(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "test.pri")
	require.NoError(t, pri.WriteFile(path, testFile()))
	return path
}

func TestInfo(t *testing.T) {
	path := writeTestFile(t)

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mrm_pri2")
	assert.Contains(t, out, "sections: 2")

	out, err = run(t, "--output", "json", "info", path)
	require.NoError(t, err)
	var info fileInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "mrm_pri2", info.Version)
	assert.Equal(t, 2, info.NumSections)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, st.Size(), info.Size)

	_, err = run(t, "info")
	assert.Error(t, err)
}

func TestLs(t *testing.T) {
	path := writeTestFile(t)

	out, err := run(t, "ls", path)
	require.NoError(t, err)
	assert.Contains(t, out, "data item")
	assert.Contains(t, out, "[custom_kind]")
	assert.Contains(t, out, "FINGERPRINT")

	out, err = run(t, "-o", "json", "ls", path)
	require.NoError(t, err)
	var rows []sectionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "data item", rows[0].Kind)
	assert.Equal(t, "unknown", rows[1].Kind)
	assert.Equal(t, uint32(3), rows[1].Qualifier)
	assert.Equal(t, 5, rows[1].PayloadSize)
	assert.Len(t, rows[1].Fingerprint, 16)
}

func TestVerify(t *testing.T) {
	good := writeTestFile(t)

	data, err := os.ReadFile(good)
	require.NoError(t, err)
	bad := filepath.Join(t.TempDir(), "bad.pri")
	require.NoError(t, os.WriteFile(bad, data[:len(data)-16], 0644))

	out, err := run(t, "verify", good)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	out, err = run(t, "verify", good, bad)
	require.ErrorIs(t, err, errVerifyFailed)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "bad.pri")
	assert.Contains(t, err.Error(), "1 of 2")

	_, err = run(t, "verify")
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	path := writeTestFile(t)
	dst := filepath.Join(t.TempDir(), "payload.bin")

	_, err := run(t, "extract", "--index", "1", "--out", dst, path)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	out, err := run(t, "extract", "--index", "1", path)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = run(t, "extract", "--index", "9", path)
	assert.Error(t, err)
}

func olderVersionFile(t *testing.T) string {
	t.Helper()
	path := writeTestFile(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(data, "mrm_pri1")
	copy(data[len(data)-8:], "mrm_pri1")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRepack(t *testing.T) {
	src := olderVersionFile(t)
	dir := t.TempDir()

	newest := filepath.Join(dir, "newest.pri")
	_, err := run(t, "repack", src, newest)
	require.NoError(t, err)
	f, err := pri.Open(newest)
	require.NoError(t, err)
	assert.Equal(t, pri.VersionPri2, f.Version())
	assert.Equal(t, testFile().Sections(), f.Sections())

	preserved := filepath.Join(dir, "preserved.pri")
	_, err = run(t, "repack", "--version-policy", "preserve", src, preserved)
	require.NoError(t, err)
	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(preserved)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = run(t, "repack", "--version-policy", "oldest", src, preserved)
	assert.Error(t, err)
}

func TestRepackConfigPolicy(t *testing.T) {
	src := olderVersionFile(t)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("version_policy: preserve\n"), 0644))

	dst := filepath.Join(t.TempDir(), "out.pri")
	_, err := run(t, "--config", cfg, "repack", src, dst)
	require.NoError(t, err)
	f, err := pri.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, pri.VersionPri1, f.Version())

	// flags win over the config file
	_, err = run(t, "--config", cfg, "repack", "--version-policy", "newest", src, dst)
	require.NoError(t, err)
	f, err = pri.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, pri.VersionPri2, f.Version())
}

func TestPack(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.bin"), []byte("hello"), 0644))
	manifest := `
sections:
  - strings: [hello]
    blobs: ["cafe"]
  - identifier: "[custom_kind]"
    qualifier: 3
    flags: 1
    payload: custom.bin
  - identifier: "[mrm_res_map2_]"
    hex: "01020304"
`
	mpath := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(mpath, []byte(manifest), 0644))

	out := filepath.Join(dir, "packed.pri")
	_, err := run(t, "pack", mpath, out)
	require.NoError(t, err)

	f, err := pri.Open(out)
	require.NoError(t, err)
	require.Equal(t, 3, f.NumSections())
	assert.Equal(t, testFile().Sections(), f.Sections()[:2])

	s, _ := f.Section(2)
	assert.Equal(t, &pri.ResourceMap{Version2: true, Data: []byte{1, 2, 3, 4}}, s.Data)
}

func TestManifestErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		ms   ManifestSection
	}{
		{"no identifier", ManifestSection{Hex: "00"}},
		{"too long", ManifestSection{Identifier: "0123456789abcdefg"}},
		{"two sources", ManifestSection{Identifier: "[x]", Hex: "00", Payload: "a.bin"}},
		{"bad hex", ManifestSection{Identifier: "[x]", Hex: "zz"}},
		{"bad blob", ManifestSection{Blobs: []string{"0"}}},
		{"strings with other identifier", ManifestSection{Identifier: "[x]", Strings: []string{"a"}}},
		{"malformed known payload", ManifestSection{Identifier: "[mrm_dataitem] ", Hex: "0102"}},
		{"missing payload file", ManifestSection{Identifier: "[x]", Payload: "missing.bin"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := &Manifest{Sections: []ManifestSection{tc.ms}, dir: t.TempDir()}
			_, err := m.Build()
			assert.Error(t, err)
		})
	}
}

func TestDiff(t *testing.T) {
	a := writeTestFile(t)

	out, err := run(t, "diff", a, a)
	require.NoError(t, err)
	assert.Empty(t, out)

	f := testFile()
	s, _ := f.Section(1)
	s.Data = &pri.UnknownSection{ID: customID, Data: []byte("world")}
	f.AddSection(pri.Section{Data: &pri.HierarchicalSchema{Data: []byte("x")}})
	b := filepath.Join(t.TempDir(), "b.pri")
	require.NoError(t, pri.WriteFile(b, f))

	out, err = run(t, "diff", a, b)
	require.ErrorIs(t, err, errFilesDiffer)
	assert.Contains(t, out, "~ 1")
	assert.Contains(t, out, "+ 2")
	assert.NotContains(t, out, "~ 0")
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), true)
	assert.Error(t, err)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: json\nlog_level: debug\nversion_policy: preserve\n"), 0644))
	cfg, err = LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, Config{VersionPolicy: "preserve", Output: "json", LogLevel: "debug"}, cfg)

	require.NoError(t, os.WriteFile(path, []byte("output: [\n"), 0644))
	_, err = LoadConfig(path, true)
	assert.Error(t, err)
}

func TestConfigOutput(t *testing.T) {
	path := writeTestFile(t)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output: json\n"), 0644))

	out, err := run(t, "--config", cfg, "info", path)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), out)

	_, err = run(t, "--output", "xml", "info", path)
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "info", path)
	assert.Error(t, err)
}
