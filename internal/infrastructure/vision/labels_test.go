package vision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "oral-scan/internal/platform/errors"
)

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("# classes\nAphthous_Ulcer\n\n  Gingivitis \nLeukoplakia\n"), 0o644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Aphthous_Ulcer", "Gingivitis", "Leukoplakia"}, labels)
}

func TestLoadLabels_Errors(t *testing.T) {
	_, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	require.True(t, apperrors.IsKind(err, apperrors.KindConfig))

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n# nothing\n"), 0o644))
	_, err = LoadLabels(empty)
	require.True(t, apperrors.IsKind(err, apperrors.KindConfig))
}

func TestUnavailable(t *testing.T) {
	d := Unavailable{Reason: "model file missing"}
	require.False(t, d.Ready())
	_, err := d.Detect(context.Background(), []byte("x"))
	require.True(t, apperrors.IsKind(err, apperrors.KindModel))
	require.Equal(t, "Model not loaded", apperrors.MessageOf(err))
}
