package demarc

// displayNames maps bookkeeping functions to the primitive they stand for in
// the symbolic-execution models. The table is independent of classification.
var displayNames = map[string]string{
	"dmap_get_value":            "klee_forbid_access",
	"map_put":                   "klee_trace_extra_ptr",
	"map_erase":                 "klee_trace_extra_ptr",
	"dchain_is_index_allocated": "klee_int",
	"vector_borrow":             "ds_path_1",
	"vector_return":             "ds_path_1",
	"flood":                     "flood",
}

// DisplayName returns the externally meaningful name for a callee.
func DisplayName(name string) string {
	if mapped, ok := displayNames[name]; ok {
		return mapped
	}
	return name
}
