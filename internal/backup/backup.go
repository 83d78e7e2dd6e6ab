package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// ExportDateLayout is ISO-8601 in UTC with milliseconds
const ExportDateLayout = "2006-01-02T15:04:05.000Z"

// Document is the whole-store backup file. A nil collection means the key
// was absent and restoring leaves that collection as it is.
type Document struct {
	Therapists   *[]types.Therapist   `json:"therapists,omitempty"`
	Treatments   *[]types.Treatment   `json:"treatments,omitempty"`
	Appointments *[]types.Appointment `json:"appointments,omitempty"`
	Users        *[]types.Account     `json:"users,omitempty"`
	ExportDate   string               `json:"exportDate,omitempty"`
}

// Slots lists the collections present in the document
func (d *Document) Slots() []types.Slot {
	var slots []types.Slot
	if d.Therapists != nil {
		slots = append(slots, types.SlotTherapists)
	}
	if d.Treatments != nil {
		slots = append(slots, types.SlotTreatments)
	}
	if d.Appointments != nil {
		slots = append(slots, types.SlotAppointments)
	}
	if d.Users != nil {
		slots = append(slots, types.SlotAccounts)
	}
	return slots
}

// Service exports and restores the store
type Service struct {
	store   *store.Store
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	now     func() time.Time
}

// New creates a backup service. metrics may be nil.
func New(st *store.Store, log *logger.Logger, metrics *monitoring.MetricsCollector) *Service {
	return &Service{
		store:   st,
		logger:  log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Export returns a complete document of the current state
func (s *Service) Export() *Document {
	snap := s.store.Snapshot()
	therapists := nonNil(snap.Therapists)
	treatments := nonNil(snap.Treatments)
	appointments := nonNil(snap.Appointments)
	accounts := nonNil(snap.Accounts)

	return &Document{
		Therapists:   &therapists,
		Treatments:   &treatments,
		Appointments: &appointments,
		Users:        &accounts,
		ExportDate:   s.now().UTC().Format(ExportDateLayout),
	}
}

// Filename is the download name for an export taken now
func (s *Service) Filename() string {
	return fmt.Sprintf("clinic-backup_%s.json", s.now().Format("2006-01-02"))
}

// WriteExport writes the current state as indented JSON
func (s *Service) WriteExport(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Export()); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Parse decodes a backup document. Anything that is not a JSON object with
// the expected collection shapes is a format error.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, types.NewFormatError(types.ErrCodeMalformedBackup, "backup document is empty", nil)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, types.NewFormatError(types.ErrCodeMalformedBackup, "backup document is not valid", err)
	}
	if err := validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Restore replaces every collection present in data. The document is parsed
// and checked in full before anything is written, and all present
// collections are persisted and swapped in one step.
func (s *Service) Restore(ctx context.Context, data []byte) (*Document, error) {
	doc, err := Parse(data)
	if err != nil {
		s.recordRestore(ctx, nil, err)
		return nil, err
	}

	slots := doc.Slots()
	if len(slots) == 0 {
		s.recordRestore(ctx, slots, nil)
		return doc, nil
	}

	err = s.store.Update(ctx, slots, func(snap *store.Snapshot) error {
		if doc.Therapists != nil {
			snap.Therapists = *doc.Therapists
		}
		if doc.Treatments != nil {
			snap.Treatments = *doc.Treatments
		}
		if doc.Appointments != nil {
			snap.Appointments = *doc.Appointments
		}
		if doc.Users != nil {
			snap.Accounts = *doc.Users
		}
		return nil
	})
	s.recordRestore(ctx, slots, err)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) recordRestore(ctx context.Context, slots []types.Slot, err error) {
	if s.metrics != nil {
		s.metrics.RecordRestore(err == nil)
	}

	names := make([]string, len(slots))
	for i, slot := range slots {
		names[i] = string(slot)
	}
	details := map[string]interface{}{"slots": names}
	if err != nil {
		details["error"] = err.Error()
	}
	s.logger.Audit(api.ActorID(ctx), "restore", "backup", err == nil, details)
}

func validate(doc *Document) error {
	if doc.Therapists != nil {
		ids := make([]string, len(*doc.Therapists))
		for i, t := range *doc.Therapists {
			if t.Category == "" {
				return malformed("therapist %q has no category", t.ID)
			}
			ids[i] = t.ID
		}
		if err := uniqueIDs("therapists", ids); err != nil {
			return err
		}
	}

	if doc.Treatments != nil {
		ids := make([]string, len(*doc.Treatments))
		for i := range *doc.Treatments {
			t := &(*doc.Treatments)[i]
			if t.Category == "" {
				return malformed("treatment %q has no category", t.ID)
			}
			types.NormalizeTreatment(t)
			ids[i] = t.ID
		}
		if err := uniqueIDs("treatments", ids); err != nil {
			return err
		}
	}

	if doc.Appointments != nil {
		ids := make([]string, len(*doc.Appointments))
		for i, a := range *doc.Appointments {
			if !a.Status.Valid() {
				return malformed("appointment %q has unknown status %q", a.ID, a.Status)
			}
			ids[i] = a.ID
		}
		if err := uniqueIDs("appointments", ids); err != nil {
			return err
		}
	}

	if doc.Users != nil {
		ids := make([]string, len(*doc.Users))
		usernames := make([]string, len(*doc.Users))
		admins := 0
		for i, u := range *doc.Users {
			if !u.Role.Valid() {
				return malformed("user %q has unknown role %q", u.ID, u.Role)
			}
			if u.Role == types.RoleAdmin {
				admins++
			}
			ids[i] = u.ID
			usernames[i] = u.Username
		}
		if err := uniqueIDs("users", ids); err != nil {
			return err
		}
		if err := uniqueIDs("usernames", usernames); err != nil {
			return err
		}
		if admins == 0 {
			return malformed("users contain no admin account")
		}
	}

	return nil
}

func uniqueIDs(collection string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return malformed("%s contain an empty id", collection)
		}
		if seen[id] {
			return malformed("%s contain duplicate id %q", collection, id)
		}
		seen[id] = true
	}
	return nil
}

func malformed(format string, args ...interface{}) error {
	return types.NewFormatError(types.ErrCodeMalformedBackup, fmt.Sprintf(format, args...), nil)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
