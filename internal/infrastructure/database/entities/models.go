package entities

// Models lists every entity the schema migration manages.
func Models() []interface{} {
	return []interface{}{
		&Template{},
		&QuadChart{},
		&QuadChartEvent{},
	}
}
