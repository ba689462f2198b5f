package demarc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Category classifies a callee by the kind of model that replaced it during
// symbolic execution.
type Category int

const (
	// None marks ordinary stateless code.
	None Category = iota
	// LibVig marks stateful data-structure models.
	LibVig
	// DPDK marks framework (or hardware) models.
	DPDK
	// Time marks clock models.
	Time
	// Verification marks verification-engine and runtime-exit symbols.
	Verification
	// Debug marks debug intrinsics. They are collapsed without a summary line.
	Debug
)

// String returns the name used in demarcated output.
func (c Category) String() string {
	switch c {
	case LibVig:
		return "libVig"
	case DPDK:
		return "DPDK"
	case Time:
		return "Time"
	case Verification:
		return "Verification"
	case Debug:
		return "Debug"
	default:
		return "None"
	}
}

// Modelled reports whether instructions under this category are replaced.
func (c Category) Modelled() bool {
	return c != None
}

// categoryByName inverts String for the categories that appear in summary lines.
var categoryByName = map[string]Category{
	"libVig":       LibVig,
	"DPDK":         DPDK,
	"Time":         Time,
	"Verification": Verification,
}

// Prefix patterns reserved for verification-engine internals and runtime exit.
// These symbols have always been matched with the anchored regexps klee* and
// _exit@plt*; the star repeats only the last character, so the prefixes that
// match are kle and _exit@pl.
const (
	verificationPrefix = "kle"
	runtimeExitPrefix  = "_exit@pl"
	debugPrefix        = "llvm.dbg."
)

// Lists holds the four classification lists. It is built once and never
// mutated, so a single value can be shared by concurrent pipelines.
type Lists struct {
	stateful     map[string]struct{}
	framework    map[string]struct{}
	time         map[string]struct{}
	verification map[string]struct{}
}

// ListPaths names the files the classification lists are loaded from.
type ListPaths struct {
	Stateful     string `yaml:"stateful"`
	Framework    string `yaml:"framework"`
	Time         string `yaml:"time"`
	Verification string `yaml:"verification"`
}

// NewLists builds Lists from in-memory name slices. Blank names are ignored.
func NewLists(stateful, framework, time, verification []string) *Lists {
	return &Lists{
		stateful:     toSet(stateful),
		framework:    toSet(framework),
		time:         toSet(time),
		verification: toSet(verification),
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimRight(n, " \t\r")
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Classify returns the category of a function name. Exact list matches take
// precedence in the order stateful, framework, time, verification; then the
// fixed prefixes apply. Unknown names are stateless code.
func (l *Lists) Classify(name string) Category {
	if l != nil {
		if _, ok := l.stateful[name]; ok {
			return LibVig
		}
		if _, ok := l.framework[name]; ok {
			return DPDK
		}
		if _, ok := l.time[name]; ok {
			return Time
		}
		if _, ok := l.verification[name]; ok {
			return Verification
		}
	}
	if strings.HasPrefix(name, verificationPrefix) || strings.HasPrefix(name, runtimeExitPrefix) {
		return Verification
	}
	if strings.HasPrefix(name, debugPrefix) {
		return Debug
	}
	return None
}

// Len returns the number of names across all four lists.
func (l *Lists) Len() int {
	if l == nil {
		return 0
	}
	return len(l.stateful) + len(l.framework) + len(l.time) + len(l.verification)
}

// ReadNames reads one function name per line. Trailing whitespace is
// trimmed and blank lines are skipped.
func ReadNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimRight(scanner.Text(), " \t\r")
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func readNamesFile(kind, path string) ([]string, error) {
	if path == "" {
		logrus.Warnf("no %s function list configured; treating it as empty", kind)
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s list: %w", kind, err)
	}
	defer func() { _ = f.Close() }()
	names, err := ReadNames(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s list %s: %w", kind, path, err)
	}
	if len(names) == 0 {
		logrus.Warnf("%s function list %s is empty", kind, path)
	}
	return names, nil
}

// LoadLists reads all four classification lists from disk.
func LoadLists(paths ListPaths) (*Lists, error) {
	stateful, err := readNamesFile("stateful", paths.Stateful)
	if err != nil {
		return nil, err
	}
	framework, err := readNamesFile("framework", paths.Framework)
	if err != nil {
		return nil, err
	}
	timeFns, err := readNamesFile("time", paths.Time)
	if err != nil {
		return nil, err
	}
	verif, err := readNamesFile("verification", paths.Verification)
	if err != nil {
		return nil, err
	}
	lists := NewLists(stateful, framework, timeFns, verif)
	logrus.Debugf("loaded classification lists: %d stateful, %d framework, %d time, %d verification",
		len(lists.stateful), len(lists.framework), len(lists.time), len(lists.verification))
	return lists, nil
}
