package builder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/daxida/kty/internal/config"
	"github.com/daxida/kty/internal/yomitan"
)

// Paths is the on-disk layout of one pair under the data root:
//
//	<root>/kaikki/<src>-<tgt>-extract.jsonl
//	<root>/dict/<src>/<tgt>/temp/tidy/<src>-<tgt>-entries.jsonl
//	<root>/dict/<src>/<tgt>/temp/diagnostics/
//	<root>/dict/<src>/<tgt>/temp/dict/
//	<root>/dict/<src>/<tgt>/<name>-<src>-<tgt>.zip
type Paths struct {
	Root string
	Name string
	Pair config.Pair
}

func NewPaths(root, name string, pair config.Pair) Paths {
	return Paths{Root: root, Name: name, Pair: pair}
}

// Input substitutes {root}, {source} and {target} in pattern.
func (p Paths) Input(pattern string) string {
	return strings.NewReplacer(
		"{root}", p.Root,
		"{source}", p.Pair.Source,
		"{target}", p.Pair.Target,
	).Replace(pattern)
}

// Filtered is the filter stage artifact.
func (p Paths) Filtered() string {
	return filepath.Join(p.Root, "kaikki", p.Pair.String()+"-extract.jsonl")
}

// Dict is the pair's output directory.
func (p Paths) Dict() string {
	return filepath.Join(p.Root, "dict", p.Pair.Source, p.Pair.Target)
}

// Temp is the pair's cache directory. It holds the run lock.
func (p Paths) Temp() string {
	return filepath.Join(p.Dict(), "temp")
}

// Entries is the normalize stage artifact.
func (p Paths) Entries() string {
	return filepath.Join(p.Temp(), "tidy", p.Pair.String()+"-entries.jsonl")
}

func (p Paths) Diagnostics() string {
	return filepath.Join(p.Temp(), "diagnostics")
}

// TempDict receives the unzipped documents when save_temps is set.
func (p Paths) TempDict() string {
	return filepath.Join(p.Temp(), "dict")
}

// Archive is the final dictionary. Kinds other than glossary get a suffix
// so both can live side by side.
func (p Paths) Archive(kind yomitan.Kind) string {
	name := fmt.Sprintf("%s-%s", p.Name, p.Pair)
	if kind != yomitan.KindGlossary {
		name += "-" + string(kind)
	}
	return filepath.Join(p.Dict(), name+".zip")
}
