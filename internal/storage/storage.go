package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/tuannm99/mikedb/internal/alias/util"
)

// FileSet maps catalog objects to files under Dir. All I/O goes through Fs
// so tests can run on afero.NewMemMapFs().
type FileSet struct {
	Fs  afero.Fs
	Dir string
}

func NewFileSet(fs afero.Fs, dir string) FileSet {
	return FileSet{Fs: fs, Dir: dir}
}

func (fs FileSet) InfoPath() string {
	return filepath.Join(fs.Dir, infoFileName)
}

func (fs FileSet) TablesPath(dataspace string) string {
	return filepath.Join(fs.Dir, dataspace+tablesExt)
}

// PagePath returns <dir>/<dataspace>.<table>.<page>.table; page 0 is metadata.
func (fs FileSet) PagePath(dataspace, table string, page uint64) string {
	return filepath.Join(fs.Dir, fmt.Sprintf("%s.%s.%d%s", dataspace, table, page, tableExt))
}

func (fs FileSet) IndexPath(dataspace, table string) string {
	return filepath.Join(fs.Dir, dataspace+"."+table+indexesExt)
}

// ReadLines returns every line of path without line terminators.
func (fs FileSet) ReadLines(path string) ([]string, error) {
	f, err := fs.Fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer util.CloseFileFunc(f)

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*OneKB), 64*OneKB*OneKB)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// AppendLine appends line plus a newline. fresh truncates the file first.
func (fs FileSet) AppendLine(path, line string, fresh bool) error {
	if err := fs.Fs.MkdirAll(fs.Dir, FileMode0755); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if fresh {
		flags |= os.O_TRUNC
	}
	f, err := fs.Fs.OpenFile(path, flags, FileMode0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (fs FileSet) Size(path string) (int64, error) {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Exists reports whether path is present; any stat error other than
// "not exist" is returned.
func (fs FileSet) Exists(path string) (bool, error) {
	_, err := fs.Fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// WriteLines replaces path atomically: write path.tmp then rename.
func (fs FileSet) WriteLines(path string, lines []string) error {
	tmp, err := fs.stage(path, lines)
	if err != nil {
		return err
	}
	return fs.commit(tmp, path)
}

func (fs FileSet) stage(path string, lines []string) (string, error) {
	if err := fs.Fs.MkdirAll(fs.Dir, FileMode0755); err != nil {
		return "", err
	}
	tmp := path + tmpExt
	f, err := fs.Fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode0644)
	if err != nil {
		return "", err
	}

	w := bufio.NewWriter(f)
	var werr error
	if len(lines) > 0 {
		_, werr = w.WriteString(strings.Join(lines, "\n") + "\n")
	}
	if err := w.Flush(); err != nil && werr == nil {
		werr = err
	}
	if err := f.Sync(); err != nil && werr == nil {
		werr = err
	}
	if err := f.Close(); err != nil && werr == nil {
		werr = err
	}
	if werr != nil {
		_ = fs.Fs.Remove(tmp)
		return "", werr
	}
	return tmp, nil
}

func (fs FileSet) commit(tmp, path string) error {
	if err := fs.Fs.Rename(tmp, path); err != nil {
		_ = fs.Fs.Remove(tmp)
		return err
	}
	return nil
}
