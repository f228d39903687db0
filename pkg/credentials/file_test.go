package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	rec := &Record{
		RootPassword: "rootpw123",
		DBName:       "joomla_example_com",
		DBUser:       "joomla_example_com",
		DBPassword:   "dbpw456",
	}

	require.NoError(t, Write(path, rec))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
	assert.True(t, loaded.Complete())
}

func TestWriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	rec := &Record{
		RootPassword: "r",
		DBName:       "n",
		DBUser:       "u",
		DBPassword:   "p",
	}
	require.NoError(t, Write(path, rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"MariaDB root password: r\n"+
			"Joomla DB name: n\n"+
			"Joomla DB user: u\n"+
			"Joomla DB password: p\n",
		string(data))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     Record
		complete bool
	}{
		{
			name: "full file",
			contents: "MariaDB root password: secret1\n" +
				"Joomla DB name: joomla_db\n" +
				"Joomla DB user: joomla_user\n" +
				"Joomla DB password: secret2\n",
			want:     Record{"secret1", "joomla_db", "joomla_user", "secret2"},
			complete: true,
		},
		{
			name: "missing db name",
			contents: "MariaDB root password: secret1\n" +
				"Joomla DB user: joomla_user\n" +
				"Joomla DB password: secret2\n",
			want:     Record{RootPassword: "secret1", DBUser: "joomla_user", DBPassword: "secret2"},
			complete: false,
		},
		{
			name: "empty value",
			contents: "MariaDB root password: \n" +
				"Joomla DB name: joomla_db\n" +
				"Joomla DB user: joomla_user\n" +
				"Joomla DB password: secret2\n",
			want:     Record{DBName: "joomla_db", DBUser: "joomla_user", DBPassword: "secret2"},
			complete: false,
		},
		{
			name: "unknown lines ignored",
			contents: "# generated by joomlactl\n" +
				"MariaDB root password: secret1\n" +
				"Joomla DB name: joomla_db\n" +
				"Joomla DB user: joomla_user\n" +
				"Joomla DB password: secret2\n" +
				"trailing garbage\n",
			want:     Record{"secret1", "joomla_db", "joomla_user", "secret2"},
			complete: true,
		},
		{
			name:     "empty file",
			contents: "",
			want:     Record{},
			complete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Parse(tt.contents)
			assert.Equal(t, &tt.want, rec)
			assert.Equal(t, tt.complete, rec.Complete())
		})
	}
}

func TestCompleteRequiresEveryField(t *testing.T) {
	full := Record{RootPassword: "r", DBName: "n", DBUser: "u", DBPassword: "p"}
	assert.True(t, full.Complete())

	// Any single empty field must block the database drop, including the
	// site db password even though the drop statements never use it.
	for _, blank := range []func(*Record){
		func(r *Record) { r.RootPassword = "" },
		func(r *Record) { r.DBName = "" },
		func(r *Record) { r.DBUser = "" },
		func(r *Record) { r.DBPassword = "" },
	} {
		rec := full
		blank(&rec)
		assert.False(t, rec.Complete())
	}
}

func TestParseEmptyDBPasswordSkipsDrop(t *testing.T) {
	rec := Parse("MariaDB root password: secret1\n" +
		"Joomla DB name: joomla_db\n" +
		"Joomla DB user: joomla_user\n" +
		"Joomla DB password: \n")
	assert.False(t, rec.Complete())
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Exists(filepath.Join(dir, "nope")))
	assert.False(t, Exists(dir))

	path := filepath.Join(dir, "credentials")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	assert.True(t, Exists(path))
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(GeneratedLength)
	require.NoError(t, err)
	assert.Len(t, pw, GeneratedLength)
	for _, c := range pw {
		assert.Contains(t, alphanumeric, string(c))
	}

	other, err := GeneratePassword(GeneratedLength)
	require.NoError(t, err)
	assert.NotEqual(t, pw, other)

	_, err = GeneratePassword(0)
	assert.Error(t, err)
}
