package converter

// ConverterOptions contains all configuration needed to turn a snapshot into SIRI.
type ConverterOptions struct {
	// AgencyID is the codespace used in SIRI references like {agency}:Line:{route_id}.
	// Defaults to the agency of the GTFS index.
	AgencyID string

	// FieldMutators defines string replacement rules for SIRI references.
	// Optional - leave empty if no mutations needed.
	FieldMutators FieldMutators
}

// FieldMutators defines string replacement rules for SIRI reference fields.
// Format: [from1, to1, from2, to2, ...] - pairs of old/new values.
//
//	FieldMutators{
//	    StopPointRef: []string{"OLD_STOP_1", "NEW_STOP_1"},
//	}
type FieldMutators struct {
	StopPointRef []string
}

func applyFieldMutators(value string, mapping []string) string {
	for i := 0; i+1 < len(mapping); i += 2 {
		if value == mapping[i] {
			return mapping[i+1]
		}
	}
	return value
}
