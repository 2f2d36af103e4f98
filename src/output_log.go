package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Daily data directory and the spectral log file.
 *
 * Description:	Every day of shooting gets its own directory under
 *		the data root, named for the date.  Within it the
 *		spectral readings accumulate in numbered text files;
 *		each process opens the next free number and appends
 *		LF-terminated lines for its lifetime.
 *
 *		The shutter press stamps the shot time.  The same
 *		stamp names the sibling JPEG (via the host's filename
 *		hook) and heads the spectral block, pairing image and
 *		data.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

var dataFilePattern = regexp.MustCompile(`^AS7265x_data_(\d+)\.txt$`)

type OutputLog struct {
	pathRoot string
	dailyDir string

	file *os.File

	dataTime        string
	buttonTriggered bool
}

func NewOutputLog(pathRoot string) *OutputLog {
	return &OutputLog{pathRoot: pathRoot}
}

/*-------------------------------------------------------------------
 *
 * Name:	Setup
 *
 * Purpose:	Create today's directory and open a fresh log file.
 *
 * Description:	The file number is one past the highest already in
 *		the directory, or 00 for the first of the day.
 *
 *--------------------------------------------------------------------*/

func (ol *OutputLog) Setup() error {
	if err := ol.createDailyDir(); err != nil {
		return err
	}

	var name, err = nextDataFilename(ol.dailyDir)
	if err != nil {
		return err
	}

	var path = filepath.Join(ol.dailyDir, name)

	ol.file, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return ioErrorf("could not open output file '%s': %v", path, err)
	}

	log.Info("output file open", "path", path)
	return nil
}

func (ol *OutputLog) createDailyDir() error {
	var day, err = strftime.Format("%Y-%m-%d", time.Now())
	if err != nil {
		return ioErrorf("could not format daily directory name: %v", err)
	}

	ol.dailyDir = filepath.Join(ol.pathRoot, day)

	if err := os.MkdirAll(ol.dailyDir, 0o777); err != nil {
		return ioErrorf("could not create daily directory '%s': %v", ol.dailyDir, err)
	}

	return nil
}

/* Scan the directory for AS7265x_data_NN.txt and pick NN = max + 1.
 * Repeated scans of an unchanged directory give the same answer. */

func nextDataFilename(dir string) (string, error) {
	var entries, err = os.ReadDir(dir)
	if err != nil {
		return "", ioErrorf("failed to open directory '%s': %v", dir, err)
	}

	var maxNum = -1
	for _, entry := range entries {
		var m = dataFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var num, err = strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if num > maxNum {
			maxNum = num
		}
	}

	return fmt.Sprintf("AS7265x_data_%02d.txt", maxNum+1), nil
}

/*-------------------------------------------------------------------
 *
 * Name:	WriteLine
 *
 * Purpose:	Append one LF-terminated line to the open log.
 *
 * Returns:	Bytes written, or an error if the file is not open or
 *		the write fails.
 *
 *--------------------------------------------------------------------*/

func (ol *OutputLog) WriteLine(line string) (int, error) {
	if ol.file == nil {
		return -1, ioErrorf("the output file is not open")
	}

	var written, err = ol.file.WriteString(line + "\n")
	if err != nil {
		return -1, ioErrorf("write to output file failed: %v", err)
	}

	return written, nil
}

/* Capture the shutter-press time.  Reused for the spectral block
 * header and the sibling JPEG name. */

func (ol *OutputLog) StampNow() {
	var stamp, err = strftime.Format("%H-%M-%S", time.Now())
	if err != nil {
		/* Cannot happen with a constant pattern; keep the old stamp. */
		return
	}
	ol.dataTime = stamp
}

func (ol *OutputLog) WriteStamp() (int, error) {
	return ol.WriteLine(ol.dataTime)
}

/* The shutter press arms the one-shot image rename. */

func (ol *OutputLog) SetButtonTriggered() {
	ol.buttonTriggered = true
}

/*-------------------------------------------------------------------
 *
 * Name:	ImageFileName
 *
 * Purpose:	Resolve the destination path for the image the host is
 *		about to write.
 *
 * Inputs:	fallback - The host's own default path.
 *
 * Description:	Only a button-triggered capture gets the stamped name;
 *		a command-triggered capture keeps the host default and
 *		produces no spectral block.  Arming is one-shot.
 *
 *--------------------------------------------------------------------*/

func (ol *OutputLog) ImageFileName(fallback string) string {
	if !ol.buttonTriggered {
		return fallback
	}
	ol.buttonTriggered = false

	return filepath.Join(ol.dailyDir, ol.dataTime+".jpg")
}

func (ol *OutputLog) Teardown() {
	if ol.file != nil {
		ol.file.Sync()
		ol.file.Close()
		ol.file = nil
	}
}
