// Package flatdict provides an in-process, fully materialized dictionary that
// maps small dense integer keys to typed attribute values.
//
// Every attribute is stored as a dense array indexed directly by key, so a
// lookup is a bounds check and a load. String attributes keep their bytes in a
// private append-only arena and are returned without copying.
//
// # Quick Start
//
//	structure, _ := flatdict.NewStructure("id",
//	    flatdict.AttributeDescriptor{Name: "weight", Kind: flatdict.KindFloat64},
//	    flatdict.AttributeDescriptor{Name: "name", Kind: flatdict.KindString, NullValue: flatdict.String("unknown")},
//	)
//	src := flatdict.SliceSource{
//	    {ID: 1, Values: []flatdict.Value{flatdict.Float64(1.5), flatdict.String("a")}},
//	    {ID: 5, Values: []flatdict.Value{flatdict.Float64(9.9), flatdict.Absent()}},
//	}
//	d := flatdict.New(ctx, "weights", structure, src)
//	if err := d.CreationErr(); err != nil {
//	    // broken, but still inspectable
//	}
//	weights, _ := flatdict.Get[float64](d, "weight", []flatdict.Key{1, 2, 5, 100})
//	names, _ := d.GetStrings("name", []flatdict.Key{1, 5})
//
// # Defaults
//
// Keys at or beyond the bucket count resolve to a fallback: the attribute's
// declared null value (Get), a scalar (GetOrDefault) or a per-key slice
// (GetWithDefaults). Buckets below the bucket count that were never written
// hold the null value, and Has reports true for them.
//
// # Deferred failure
//
// New never returns an error. A load failure is stored on the dictionary and
// reported by CreationErr and State; rows loaded before the failure remain
// queryable.
//
// # Generations
//
// A Handle publishes successive generations. Readers Acquire a Lease, query
// the pinned Dictionary and Release it; a superseded generation is freed when
// its last lease is released. The registry package drives periodic reloads.
package flatdict
