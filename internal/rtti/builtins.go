package rtti

// RegisterBuiltins registers every qualifier spelling of Go's predeclared
// scalar types, each with a shifter to its pointer spelling. Call it first
// during startup; user types usually depend on these descriptors.
func RegisterBuiltins(r *Registry) {
	registerScalar[bool](r)
	registerScalar[string](r)
	registerScalar[int](r)
	registerScalar[int8](r)
	registerScalar[int16](r)
	registerScalar[int32](r)
	registerScalar[int64](r)
	registerScalar[uint](r)
	registerScalar[uint8](r)
	registerScalar[uint16](r)
	registerScalar[uint32](r)
	registerScalar[uint64](r)
	registerScalar[uintptr](r)
	registerScalar[float32](r)
	registerScalar[float64](r)
	registerScalar[complex64](r)
	registerScalar[complex128](r)
}

func registerScalar[T any](r *Registry) {
	for _, td := range RegisterAll[T](r) {
		if _, err := AttachShifter[T](td); err != nil && !IsAlreadyRegistered(err) {
			r.logger.Error("attach builtin shifter", "type", td.Name(), "error", err)
		}
	}
}
