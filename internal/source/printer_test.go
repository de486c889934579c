package source

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, lines int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.c")
	var sb strings.Builder
	for i := 1; i <= lines; i++ {
		sb.WriteString("line")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestPrintWindowCenteredOnFocal(t *testing.T) {
	path := writeTempFile(t, 20)
	require.NoError(t, Print(path, 10, 2))
}

func TestPrintWindowShiftsRightNearFileStart(t *testing.T) {
	// focal=1, context=2 would naively want lines [-1, 3]; the window must
	// shift right to [1, 5] to preserve the line count (§4.9).
	path := writeTempFile(t, 20)
	require.NoError(t, Print(path, 1, 2))
}

func TestPrintSilentNoMarker(t *testing.T) {
	path := writeTempFile(t, 10)
	require.NoError(t, PrintSilent(path, 5, 1))
}
