package dedup

import (
	"os"

	"github.com/jamesainslie/breachstore/pkg/breachstore/ledger"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// Status reports the freshness of every kind's unique store. A kind is
// outdated when its raw store exists and the unique store is missing,
// older than the raw store, or predates the last import.
func Status(root string) (map[types.Kind]types.KindStatus, error) {
	layout := store.New(root)
	if err := layout.Ensure(); err != nil {
		return nil, err
	}
	st := ledger.Load(root)
	lastImport := st.LastImport()

	out := make(map[types.Kind]types.KindStatus, len(types.Kinds))
	for _, k := range types.Kinds {
		ks := types.KindStatus{
			Kind:       k,
			RawPath:    layout.RawPath(k),
			UniquePath: layout.UniquePath(k),
			LastImport: lastImport,
			LastDedup:  st.LastDedup(k),
		}
		if info, err := os.Stat(ks.RawPath); err == nil {
			ks.RawExists = true
			ks.RawSize = info.Size()
			ks.RawMtime = info.ModTime()
		}
		if info, err := os.Stat(ks.UniquePath); err == nil {
			ks.UniqueExists = true
			ks.UniqueSize = info.Size()
			ks.UniqueMtime = info.ModTime()
		}

		if ks.RawExists {
			ks.Outdated = !ks.UniqueExists ||
				ks.RawMtime.After(ks.UniqueMtime) ||
				lastImport.After(ks.LastDedup)
		}
		out[k] = ks
	}
	return out, nil
}

// Outdated returns the kinds whose unique store needs rebuilding, in
// canonical order.
func Outdated(statuses map[types.Kind]types.KindStatus) []types.Kind {
	var kinds []types.Kind
	for _, k := range types.Kinds {
		if statuses[k].Outdated {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
