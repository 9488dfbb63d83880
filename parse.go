package csvstream

// ============================================================================
// Public API - Direct Parsing
// ============================================================================

// ParseBytes parses a complete input held in memory.
// Returns all rows extracted from data, or the first error.
func ParseBytes(data []byte, opts Options) ([]Row, error) {
	var rows []Row
	err := ParseBytesStreaming(data, opts, func(row Row) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return rows, err
	}
	return rows, nil
}

// ParseBytesStreaming parses a complete input held in memory using a
// callback. The callback is invoked for each row. If it returns an error,
// parsing stops and that error is returned.
func ParseBytesStreaming(data []byte, opts Options, callback func(Row) error) error {
	p, err := NewParser(opts)
	if err != nil {
		return err
	}

	rows, err := p.Ingest(data)
	if err := emitRows(rows, callback); err != nil {
		return err
	}
	if err != nil {
		return err
	}

	rows, err = p.Finish()
	if err := emitRows(rows, callback); err != nil {
		return err
	}
	return err
}

// emitRows hands rows to callback until it fails.
func emitRows(rows []Row, callback func(Row) error) error {
	for _, row := range rows {
		if err := callback(row); err != nil {
			return err
		}
	}
	return nil
}
