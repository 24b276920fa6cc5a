package conflict

import (
	"time"
)

// SourceCRM marks entities created by the synchronization engine.
const SourceCRM = "crm"

// ImportMetadata is the provenance blob embedded on every synced entity.
// It is persisted as JSON next to the entity's own fields.
type ImportMetadata struct {
	Source                string     `json:"source,omitempty"`
	ExternalID            string     `json:"external_id,omitempty"`
	LocallyModifiedFields []string   `json:"locally_modified_fields,omitempty"`
	LastSyncedAt          *time.Time `json:"last_synced_at,omitempty"`
}

// Imported reports whether the entity was ever created or touched by the
// engine. Only imported entities are conflict-tracked.
func (m *ImportMetadata) Imported() bool {
	return m != nil && m.Source != ""
}

// MarkModified adds the given field names to LocallyModifiedFields as a set
// union and returns the names that were actually new.
func (m *ImportMetadata) MarkModified(fields []string) []string {
	existing := make(map[string]struct{}, len(m.LocallyModifiedFields))
	for _, f := range m.LocallyModifiedFields {
		existing[f] = struct{}{}
	}

	var added []string
	for _, f := range fields {
		if _, ok := existing[f]; ok {
			continue
		}
		existing[f] = struct{}{}
		m.LocallyModifiedFields = append(m.LocallyModifiedFields, f)
		added = append(added, f)
	}
	return added
}

// IsModified reports whether the field has been edited locally since import.
func (m *ImportMetadata) IsModified(field string) bool {
	if m == nil {
		return false
	}
	for _, f := range m.LocallyModifiedFields {
		if f == field {
			return true
		}
	}
	return false
}
