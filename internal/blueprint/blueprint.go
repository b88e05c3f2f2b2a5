// Package blueprint derives the identity of a creature from its blueprint
// path: the dotted path itself, the class id used by allow and deny lists, and
// the "/"-delimited logical path used by path sets.
package blueprint

import (
	"fmt"
	"strings"

	"github.com/hupe1980/dinofilter/internal/species"
)

// ClassSuffix terminates every class id.
const ClassSuffix = "_C"

// LookupError reports a record that lacks the field its identity is derived
// from. It is fatal for the record; no fallback path is guessed.
type LookupError struct {
	Field  string
	Entity *species.Entity
}

func (e *LookupError) Error() string {
	name := ""
	if e.Entity != nil {
		name = e.Entity.Name()
	}

	if name == "" {
		return fmt.Sprintf("creature record has no %q field", e.Field)
	}

	return fmt.Sprintf("creature %q has no %q field", name, e.Field)
}

// Path returns the blueprint path of e. The abbreviated "bp" field wins over
// "blueprintPath" when both are present. With stripClass the class segment
// after the first "." is dropped.
func Path(e *species.Entity, stripClass bool) (string, error) {
	path := e.String(species.FieldBP)
	if path == "" {
		path = e.String(species.FieldBlueprintPath)
	}

	if path == "" {
		return "", &LookupError{Field: species.FieldBlueprintPath, Entity: e}
	}

	if stripClass {
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[:i]
		}
	}

	return path, nil
}

// ClassName returns the class id of a dotted blueprint path: the part after
// the first "." with [ClassSuffix] appended when missing. A path without a
// "." is taken as the class segment itself.
func ClassName(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}

	if !strings.HasSuffix(path, ClassSuffix) {
		path += ClassSuffix
	}

	return path
}

// LogicalPath converts a dotted blueprint path into the "/"-delimited path
// matched against path sets:
//
//	/Game/Dinos/Rex/Rex_Character_BP.Rex_Character_BP_C -> Game/Dinos/Rex/Rex_Character_BP
func LogicalPath(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}

	return strings.Trim(path, "/")
}

// AssetPath returns path up to its last ".".
func AssetPath(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}

	return path
}
