package fields

import "fmt"

// Check identifiers.
const (
	CheckUnresolvableSchema = "schemafield.E001"
	CheckInvalidDefault     = "schemafield.E002"
	CheckLossyExport        = "schemafield.W003"
)

// CheckLevel grades a check message.
type CheckLevel int

const (
	LevelWarning CheckLevel = iota
	LevelError
)

// CheckMessage is one pre-flight finding about a field definition.
type CheckMessage struct {
	ID    string
	Level CheckLevel
	Msg   string
	Hint  string
}

func (m CheckMessage) String() string {
	if m.Hint == "" {
		return fmt.Sprintf("%s: %s", m.ID, m.Msg)
	}
	return fmt.Sprintf("%s: %s (%s)", m.ID, m.Msg, m.Hint)
}

// Check runs the field's pre-flight validations: the schema must resolve,
// the declared default must conform, and include/exclude filters must not
// destroy data the schema requires back.
func (f *SchemaField) Check() []CheckMessage {
	var messages []CheckMessage

	if err := f.adapter.ValidateSchema(); err != nil {
		messages = append(messages, CheckMessage{
			ID:    CheckUnresolvableSchema,
			Level: LevelError,
			Msg:   fmt.Sprintf("cannot resolve the schema: %v", err),
		})
		// the remaining checks all need a resolved schema
		return messages
	}

	if f.hasDefault {
		if _, err := f.adapter.ValidateValue(f.def); err != nil {
			messages = append(messages, CheckMessage{
				ID:    CheckInvalidDefault,
				Level: LevelError,
				Msg:   fmt.Sprintf("default value cannot be adapted to the schema: %v", err),
			})
		}
	}

	if msg, lossy := f.checkExportRoundTrip(); lossy {
		messages = append(messages, msg)
	}
	return messages
}

// checkExportRoundTrip dumps a representative value with the configured
// filters and validates the result back, surfacing filters that drop
// required fields.
func (f *SchemaField) checkExportRoundTrip() (CheckMessage, bool) {
	if len(f.export.Include) == 0 && len(f.export.Exclude) == 0 {
		return CheckMessage{}, false
	}

	probe, err := f.Default()
	if err != nil || probe == nil {
		probe = f.adapter.DefaultValue()
	}
	if probe == nil {
		return CheckMessage{}, false
	}

	dumped, err := f.adapter.DumpValue(probe)
	if err != nil {
		return CheckMessage{}, false
	}
	if _, err := f.adapter.ValidateValue(dumped); err != nil {
		return CheckMessage{
			ID:    CheckLossyExport,
			Level: LevelWarning,
			Msg:   fmt.Sprintf("export arguments may lead to data integrity problems: %v", err),
			Hint:  "review the include and exclude arguments",
		}, true
	}
	return CheckMessage{}, false
}
