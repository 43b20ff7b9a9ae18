package schema

// StringField maps one canonical string column onto ordered source candidates.
type StringField struct {
	Name       string
	Candidates []string
	Default    string
}

// NumericField maps one canonical numeric column onto ordered source candidates.
type NumericField struct {
	Name       string
	Candidates []string
}

// Reconciler resolves candidate column positions once per frame.
type Reconciler struct {
	frame    *Frame
	strings  []StringField
	numerics []NumericField
	sIdx     [][]int
	nIdx     [][]int
}

// NewReconciler binds mapping tables to a frame. Absent candidates are dropped
// here so per-row lookups only touch columns that exist.
func NewReconciler(f *Frame, strs []StringField, nums []NumericField) *Reconciler {
	r := &Reconciler{frame: f, strings: strs, numerics: nums}
	r.sIdx = make([][]int, len(strs))
	for i, s := range strs {
		r.sIdx[i] = present(f, s.Candidates)
	}
	r.nIdx = make([][]int, len(nums))
	for i, n := range nums {
		r.nIdx[i] = present(f, n.Candidates)
	}
	return r
}

func present(f *Frame, cands []string) []int {
	out := make([]int, 0, len(cands))
	for _, c := range cands {
		if i := f.Index(c); i >= 0 {
			out = append(out, i)
		}
	}
	return out
}

// Record is one reconciled row.
type Record struct {
	Strings  map[string]string
	Numerics map[string]float64
}

// String returns field i for row: first non-null candidate, else the default.
func (r *Reconciler) String(row, i int) string {
	for _, ci := range r.sIdx[i] {
		if v := r.frame.Cell(row, ci); !IsNull(v) {
			return v
		}
	}
	return r.strings[i].Default
}

// Float returns field i for row: first candidate with a parseable value, else 0.
func (r *Reconciler) Float(row, i int) float64 {
	for _, ci := range r.nIdx[i] {
		if v, ok := ParseFloat(r.frame.Cell(row, ci)); ok {
			return v
		}
	}
	return 0
}

// Row reconciles a single row into a Record.
func (r *Reconciler) Row(row int) Record {
	rec := Record{
		Strings:  make(map[string]string, len(r.strings)),
		Numerics: make(map[string]float64, len(r.numerics)),
	}
	for i, s := range r.strings {
		rec.Strings[s.Name] = r.String(row, i)
	}
	for i, n := range r.numerics {
		rec.Numerics[n.Name] = r.Float(row, i)
	}
	return rec
}

// Reconcile maps every row of f through the given tables.
func Reconcile(f *Frame, strs []StringField, nums []NumericField) []Record {
	r := NewReconciler(f, strs, nums)
	out := make([]Record, f.Len())
	for i := range out {
		out[i] = r.Row(i)
	}
	return out
}

// FirstString is the single-field form used outside bulk reconciliation.
func FirstString(f *Frame, row int, def string, candidates ...string) string {
	for _, c := range candidates {
		if v := f.Value(row, c); !IsNull(v) {
			return v
		}
	}
	return def
}
