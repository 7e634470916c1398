package analysis

// Normalize validates raw model output and fills any absent or null category
// with an empty list. Unknown fields are dropped. Wrongly typed fields fail.
func Normalize(raw RawOutput) (Result, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Result{}, err
	}
	var res Result
	for _, name := range outputFields {
		v, ok := fields[name]
		if !ok {
			res.set(name, []string{})
			continue
		}
		labels, err := decodeLabels(name, v, true)
		if err != nil {
			return Result{}, err
		}
		if labels == nil {
			labels = []string{}
		}
		res.set(name, labels)
	}
	return res, nil
}
