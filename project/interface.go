package project

// DriverFieldSink receives named register field values for one driver.
// Apply_field is synchronous and idempotent.
type DriverFieldSink interface {
	Apply_field(field_name string, value int64) error
}

// IFieldLookup is implemented by sinks that can tell which fields exist.
type IFieldLookup interface {
	Has_field(field_name string) bool
}

// IFieldForwarder receives raw field writes after they were stored.
type IFieldForwarder interface {
	Forward_field(stepper_name, field_name string, value int64) error
}

// ITMCFrequency is implemented by drivers that can report their clock.
type ITMCFrequency interface {
	Get_tmc_frequency() (float64, error)
}
