package species

import (
	clone "github.com/huandu/go-clone"
)

// classSuffixLen is the length of the "_C" class suffix carried by the
// abbreviated path of extended records.
const classSuffixLen = 2

// JoinResult is the outcome of [Join].
type JoinResult struct {
	// Dataset holds copies of the stats records with the matching extended
	// record attached under "extra".
	Dataset *Dataset
	// Unmatched lists the blueprint paths of stats records without an
	// extended record; those get an empty "extra".
	Unmatched []string
}

// Join attaches to every stats record the extended record whose abbreviated
// path, minus its class suffix, equals the stats blueprint path. Among
// extended records sharing a path, the first in extended order wins. Inputs
// are not modified. The joined version is the greater of both versions.
func Join(stats, extended *Dataset) *JoinResult {
	index := make(map[string]*Entity, len(extended.Species))

	for _, ext := range extended.Species {
		bp := ext.String(FieldBP)
		if len(bp) < classSuffixLen {
			continue
		}

		key := bp[:len(bp)-classSuffixLen]
		if _, dup := index[key]; !dup {
			index[key] = ext
		}
	}

	res := &JoinResult{
		Dataset: &Dataset{
			Version: MaxVersion(extended.Version, stats.Version),
			Species: make([]*Entity, 0, len(stats.Species)),
		},
	}

	for _, st := range stats.Species {
		rec := clone.Clone(st.Raw()).(map[string]interface{}) //nolint:forcetypeassert // Clone preserves the dynamic type

		bp := st.String(FieldBlueprintPath)
		if ext, ok := index[bp]; ok {
			rec[FieldExtra] = clone.Clone(ext.Raw())
		} else {
			rec[FieldExtra] = map[string]interface{}{}
			res.Unmatched = append(res.Unmatched, bp)
		}

		res.Dataset.Species = append(res.Dataset.Species, NewEntity(rec))
	}

	return res
}
