package export

// Column describes one field of a flattened ranked report. Numeric
// columns are right aligned by renderers that support alignment.
type Column struct {
	Key     string
	Label   string
	Numeric bool
}

// Dataset is a ranked report flattened into rows keyed by column.
type Dataset struct {
	Columns []Column
	Rows    []map[string]string
}

// Keys returns the column keys in declaration order.
func (d Dataset) Keys() []string {
	keys := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		keys[i] = col.Key
	}
	return keys
}
