package models

// EntityType names a kind of stored document. It is the prefix of cache keys
// and selects the backing collection.
type EntityType string

const (
	EntityStudent    EntityType = "student"
	EntityBatch      EntityType = "batch"
	EntityProgram    EntityType = "program"
	EntityUser       EntityType = "user"
	EntityAttendance EntityType = "attendance"
)

// Collection returns the collection the entity lives in.
func (e EntityType) Collection() string {
	switch e {
	case EntityStudent:
		return "students"
	case EntityBatch:
		return "batches"
	case EntityProgram:
		return "programs"
	case EntityUser:
		return "users"
	case EntityAttendance:
		return "attendance"
	}
	return string(e)
}

// Placeholder is the display value used when a referenced entity cannot be
// resolved.
func (e EntityType) Placeholder() string {
	switch e {
	case EntityStudent:
		return "Unknown Student"
	case EntityBatch:
		return "Unknown Batch"
	case EntityProgram:
		return "Unknown Program"
	case EntityUser:
		return "Unknown User"
	}
	return "Unknown"
}
