package spectracam

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputLogCreatesDailyDirAndFirstFile(t *testing.T) {
	var root = t.TempDir()

	var ol = NewOutputLog(root)
	require.NoError(t, ol.Setup())
	defer ol.Teardown()

	var day = time.Now().Format("2006-01-02")
	var expected = filepath.Join(root, day, "AS7265x_data_00.txt")

	_, err := os.Stat(expected)
	assert.NoError(t, err, "expected %s to exist", expected)
}

func TestOutputLogNumbersFilesSequentially(t *testing.T) {
	var root = t.TempDir()
	var day = time.Now().Format("2006-01-02")
	var dir = filepath.Join(root, day)

	require.NoError(t, os.MkdirAll(dir, 0o777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AS7265x_data_00.txt"), nil, 0o666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AS7265x_data_07.txt"), nil, 0o666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), nil, 0o666))

	var ol = NewOutputLog(root)
	require.NoError(t, ol.Setup())
	defer ol.Teardown()

	_, err := os.Stat(filepath.Join(dir, "AS7265x_data_08.txt"))
	assert.NoError(t, err)
}

func TestNextDataFilenameIdempotent(t *testing.T) {
	var dir = t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "AS7265x_data_03.txt"), nil, 0o666))

	var first, err = nextDataFilename(dir)
	require.NoError(t, err)

	second, err := nextDataFilename(dir)
	require.NoError(t, err)

	assert.Equal(t, "AS7265x_data_04.txt", first)
	assert.Equal(t, first, second, "repeated scans of an unchanged directory must agree")
}

func TestOutputLogWritesAreLineTerminated(t *testing.T) {
	var root = t.TempDir()

	var ol = NewOutputLog(root)
	require.NoError(t, ol.Setup())

	_, err := ol.WriteLine("Sensors working,aS,AS,tCS")
	require.NoError(t, err)
	_, err = ol.WriteLine("")
	require.NoError(t, err)

	ol.Teardown()

	var day = time.Now().Format("2006-01-02")
	raw, err := os.ReadFile(filepath.Join(root, day, "AS7265x_data_00.txt"))
	require.NoError(t, err)

	assert.Equal(t, "Sensors working,aS,AS,tCS\n\n", string(raw))
}

func TestWriteLineWithoutOpenFile(t *testing.T) {
	var ol = NewOutputLog(t.TempDir())

	var _, err = ol.WriteLine("anything")
	assert.Error(t, err)
}

func TestImageFileNameOneShot(t *testing.T) {
	var root = t.TempDir()

	var ol = NewOutputLog(root)
	require.NoError(t, ol.Setup())
	defer ol.Teardown()

	ol.StampNow()
	ol.SetButtonTriggered()

	var stamped = ol.ImageFileName("/tmp/host-default.jpg")
	assert.Equal(t, filepath.Join(ol.dailyDir, ol.dataTime+".jpg"), stamped)

	/* Arming is one-shot: the next capture keeps the host name. */
	assert.Equal(t, "/tmp/host-default.jpg", ol.ImageFileName("/tmp/host-default.jpg"))
}

func TestImageFileNameWithoutButtonPress(t *testing.T) {
	var ol = NewOutputLog(t.TempDir())

	assert.Equal(t, "/tmp/host-default.jpg", ol.ImageFileName("/tmp/host-default.jpg"))
}

func TestWriteStampWritesCapturedTime(t *testing.T) {
	var root = t.TempDir()

	var ol = NewOutputLog(root)
	require.NoError(t, ol.Setup())

	ol.StampNow()
	var stamp = ol.dataTime
	require.Regexp(t, `^\d{2}-\d{2}-\d{2}$`, stamp)

	_, err := ol.WriteStamp()
	require.NoError(t, err)

	ol.Teardown()

	var day = time.Now().Format("2006-01-02")
	raw, err := os.ReadFile(filepath.Join(root, day, "AS7265x_data_00.txt"))
	require.NoError(t, err)

	assert.Equal(t, stamp+"\n", string(raw))
}
