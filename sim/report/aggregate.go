package report

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Aggregate walks dir and, for every regular file whose name ends with
// suffix, writes "<relative path without suffix>,<line>" to w for each
// non-blank line of the file. Files are visited in lexical order. It
// returns the number of files read.
func Aggregate(dir, suffix string, w io.Writer) (int, error) {
	if suffix == "" {
		return 0, fmt.Errorf("aggregate: empty suffix")
	}
	out := bufio.NewWriter(w)
	files := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), suffix)
		if err := appendFile(out, path, name); err != nil {
			return err
		}
		files++
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("aggregate %s: %w", dir, err)
	}
	if err := out.Flush(); err != nil {
		return files, err
	}
	if files == 0 {
		logrus.Warnf("no *%s files under %s", suffix, dir)
	}
	return files, nil
}

func appendFile(w io.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s,%s\n", name, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
