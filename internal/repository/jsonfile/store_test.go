package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_BootstrapCreatesFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testOptions())

	require.NoError(t, store.Bootstrap(""))

	for _, name := range []string{UsersFile, SubmissionsFile, QuestionsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "Файл %s должен быть создан", name)
	}
}

func TestStore_BootstrapSeedsQuestionsOnce(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[{"id":1,"question":"Q1","options":["A","B"]}]`), 0o644))
	store := NewStore(dir, testOptions())

	// Act
	require.NoError(t, store.Bootstrap(seed))

	// Assert
	questions, err := store.Questions.Read()
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "1", questions[0].ID.Key())

	// Повторный запуск не перезаписывает существующий банк
	require.NoError(t, store.Questions.Write(nil))
	require.NoError(t, store.Bootstrap(seed))
	questions, err = store.Questions.Read()
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestStore_BootstrapRejectsInvalidSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[{"question":"no id","options":["A"]}]`), 0o644))

	err := NewStore(t.TempDir(), testOptions()).Bootstrap(seed)

	assert.Error(t, err)
}
