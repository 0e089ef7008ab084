package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/assimilator/internal/config"
	"github.com/thebtf/assimilator/internal/db/sqlite"
)

const animalsCSV = "name,other\ncat,5\nbat,6\nzebra,5\n"

// execute resets command state and runs the root command with args.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithHome(t, t.TempDir(), args...)
}

// executeWithHome is execute with HOME set to home.
func executeWithHome(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	for _, key := range []string{config.EnvKeyColumn, config.EnvThreshold, config.EnvReferences, config.EnvDelimiter, config.EnvLogLevel} {
		t.Setenv(key, "")
	}

	configPath = ""
	debug = false
	profile = ""
	cfg = config.Default()
	dedupeFlags.reset()
	dedupeReferences = nil
	dedupeAllReferences = false
	dedupeJSON = false
	dedupeSQLite = ""
	dedupeQuery = ""
	dedupeWatch = false
	correctFlags.reset()
	correctCSV = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestVersionCmd(t *testing.T) {
	version = "1.2.3"
	defer func() { version = "dev" }()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "assimilator version 1.2.3\n", out)
}

func TestDedupeCmd_Flags(t *testing.T) {
	key := dedupeCmd.Flags().Lookup("key")
	require.NotNil(t, key)
	assert.Equal(t, "k", key.Shorthand)

	threshold := dedupeCmd.Flags().Lookup("threshold")
	require.NotNil(t, threshold)
	assert.Equal(t, "t", threshold.Shorthand)
	assert.Equal(t, "-1", threshold.DefValue)

	assert.NotNil(t, dedupeCmd.Flags().Lookup("all-references"))
	assert.NotNil(t, dedupeCmd.Flags().Lookup("watch"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestDedupeCmd_RequiresKey(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)

	_, err := execute(t, "dedupe", path)
	assert.ErrorIs(t, err, errKeyRequired)
}

func TestDedupeCmd_Unconstrained(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)

	out, err := execute(t, "dedupe", path, "--key", "name", "--threshold", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Variants:")
	assert.Contains(t, out, "bat <- zebra")
}

func TestDedupeCmd_AllReferences(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)

	out, err := execute(t, "dedupe", path, "-k", "name", "-t", "2", "--all-references")
	require.NoError(t, err)
	assert.Contains(t, out, "cat <- zebra")
}

func TestDedupeCmd_NoVariants(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)

	out, err := execute(t, "dedupe", path, "-k", "name")
	require.NoError(t, err)
	assert.Contains(t, out, "No variants absorbed.")
	assert.Contains(t, out, "zebra")
}

func TestDedupeCmd_JSON(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)

	out, err := execute(t, "dedupe", path, "-k", "name", "-t", "2", "-r", "other", "--json")
	require.NoError(t, err)

	var got dedupeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "name", got.Key)
	assert.Equal(t, 2, got.Threshold)
	assert.Equal(t, []string{"other"}, got.References)
	assert.Equal(t, []string{"name", "other"}, got.Columns)
	assert.Len(t, got.Rows, 2)
	assert.Equal(t, map[string][]string{"cat": {"zebra"}}, got.Variants)
}

func TestDedupeCmd_ConfigFile(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)
	conf := writeFile(t, "config.yaml", "key_column: name\nthreshold: 2\nall_references: true\n")

	out, err := execute(t, "--config", conf, "dedupe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "cat <- zebra")
}

func TestDedupeCmd_InvalidConfig(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)
	conf := writeFile(t, "config.yaml", "threshold: -4\n")

	_, err := execute(t, "--config", conf, "dedupe", path, "-k", "name")
	assert.ErrorIs(t, err, config.ErrInvalidThreshold)
}

func TestDedupeCmd_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "animals.db")
	store, err := sqlite.NewStore(sqlite.StoreConfig{Path: dbPath})
	require.NoError(t, err)
	ctx := context.Background()
	_, err = store.ExecContext(ctx, "CREATE TABLE animals (name TEXT, other INTEGER)")
	require.NoError(t, err)
	_, err = store.ExecContext(ctx, "INSERT INTO animals VALUES ('cat', 5), ('bat', 6), ('zebra', 5)")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "dedupe", "--sqlite", dbPath, "--query", "SELECT name, other FROM animals",
		"-k", "name", "-t", "2", "--all-references")
	require.NoError(t, err)
	assert.Contains(t, out, "cat <- zebra")
}

func TestDedupeCmd_SourceErrors(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"no source", []string{"dedupe", "-k", "name"}, "a CSV file or --sqlite is required"},
		{"both sources", []string{"dedupe", path, "--sqlite", "x.db", "--query", "SELECT 1"}, "not both"},
		{"sqlite without query", []string{"dedupe", "--sqlite", "x.db"}, "--sqlite requires --query"},
		{"missing file", []string{"dedupe", path + ".missing", "-k", "name"}, "open csv"},
		{"unknown key", []string{"dedupe", path, "-k", "animal"}, "column not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

// writeProfiles writes a profiles file under the test HOME.
func writeProfiles(t *testing.T, body string) {
	t.Helper()
	path := config.ProfilesPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func TestDedupeCmd_NamedProfile(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)
	home := t.TempDir()

	t.Setenv("HOME", home)
	writeProfiles(t, "profiles:\n  - name: animals\n    key_column: name\n    threshold: 2\n    all_references: true\n")

	out, err := executeWithHome(t, home, "--profile", "animals", "dedupe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "cat <- zebra")
}

func TestDedupeCmd_ProfileByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "animals.csv")
	require.NoError(t, os.WriteFile(path, []byte(animalsCSV), 0600))
	home := t.TempDir()

	t.Setenv("HOME", home)
	writeProfiles(t, "profiles:\n  - name: animals\n    key_column: name\n    threshold: 2\n    path_prefix: "+dir+"\n")

	out, err := executeWithHome(t, home, "dedupe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "bat <- zebra")
}

func TestDedupeCmd_UnknownProfile(t *testing.T) {
	path := writeFile(t, "animals.csv", animalsCSV)

	_, err := execute(t, "--profile", "missing", "dedupe", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile "missing"`)
}

func TestCorrectCmd_CSV(t *testing.T) {
	source := writeFile(t, "source.csv", animalsCSV)
	target := writeFile(t, "target.csv", "name,other\nzebra,5\ncat,5\ndog,1\n")

	out, err := execute(t, "correct", source, target, "-k", "name", "-t", "2", "--csv")
	require.NoError(t, err)
	assert.Equal(t, "name,other\ncat,5\ndog,1\n", out)
}

func TestCorrectCmd_Text(t *testing.T) {
	source := writeFile(t, "source.csv", animalsCSV)
	target := writeFile(t, "target.csv", "name,other\nzebra,5\n")

	out, err := execute(t, "correct", source, target, "-k", "name", "-t", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "cat")
	assert.NotContains(t, out, "zebra")
}

func TestCorrectCmd_MissingKeyInTarget(t *testing.T) {
	source := writeFile(t, "source.csv", animalsCSV)
	target := writeFile(t, "target.csv", "animal,other\nzebra,5\n")

	out, err := execute(t, "correct", source, target, "-k", "name", "--csv")
	require.NoError(t, err)
	assert.Equal(t, "animal,other\nzebra,5\n", out)
}

func TestCorrectCmd_RequiresTwoArgs(t *testing.T) {
	_, err := execute(t, "correct", "only.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}
