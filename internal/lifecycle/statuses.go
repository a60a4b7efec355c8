// Package lifecycle holds the order lifecycle rules that do not touch
// storage: the baseline status taxonomy and its merge with operator edits,
// checklist instantiation, and the pipeline projection.
package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"flooring_crm/internal/models"
)

// System status ids.
const (
	StatusNew                    = "new"
	StatusContacted              = "contacted"
	StatusMeasurementScheduled   = "measurement_scheduled"
	StatusMeasurementDone        = "measurement_done"
	StatusQuoteInProgress        = "quote_in_progress"
	StatusQuoteSent              = "quote_sent"
	StatusQuoteAccepted          = "quote_accepted"
	StatusAwaitingDeposit        = "awaiting_deposit"
	StatusMaterialsOrdered       = "materials_ordered"
	StatusMaterialsReady         = "materials_ready"
	StatusInstallationScheduled  = "installation_scheduled"
	StatusInstallationInProgress = "installation_in_progress"
	StatusProtocolPending        = "protocol_pending"
	StatusInvoiced               = "invoiced"
	StatusCompleted              = "completed"
	StatusCancelled              = "cancelled"
)

var baselineStatuses = []models.StatusDefinition{
	{ID: StatusNew, Label: "Nowe zapytanie", Description: "Zapytanie od klienta, brak kontaktu zwrotnego", Order: 1, Group: "Lead"},
	{ID: StatusContacted, Label: "Kontakt nawiązany", Description: "Rozmowa z klientem odbyta", Order: 2, Group: "Lead"},
	{ID: StatusMeasurementScheduled, Label: "Pomiar umówiony", Description: "Termin pomiaru ustalony z klientem", Order: 3, Group: "Pomiar"},
	{ID: StatusMeasurementDone, Label: "Pomiar wykonany", Description: "Powierzchnia i podłoże zmierzone", Order: 4, Group: "Pomiar"},
	{ID: StatusQuoteInProgress, Label: "Wycena w przygotowaniu", Description: "Oferta jest przygotowywana", Order: 5, Group: "Wycena"},
	{ID: StatusQuoteSent, Label: "Wycena wysłana", Description: "Oferta czeka na decyzję klienta", Order: 6, Group: "Wycena"},
	{ID: StatusQuoteAccepted, Label: "Wycena zaakceptowana", Description: "Klient przyjął ofertę", Order: 7, Group: "Wycena"},
	{ID: StatusAwaitingDeposit, Label: "Oczekuje na zaliczkę", Description: "Zamówienie materiału po wpłacie zaliczki", Order: 8, Group: "Realizacja"},
	{ID: StatusMaterialsOrdered, Label: "Materiał zamówiony", Description: "Zamówienie u dostawcy złożone", Order: 9, Group: "Realizacja"},
	{ID: StatusMaterialsReady, Label: "Materiał gotowy", Description: "Materiał na magazynie lub u klienta", Order: 10, Group: "Realizacja"},
	{ID: StatusInstallationScheduled, Label: "Montaż zaplanowany", Description: "Termin montażu potwierdzony", Order: 11, Group: "Realizacja"},
	{ID: StatusInstallationInProgress, Label: "Montaż w toku", Description: "Ekipa pracuje na obiekcie", Order: 12, Group: "Realizacja"},
	{ID: StatusProtocolPending, Label: "Protokół do podpisu", Description: "Czeka na protokół odbioru", Order: 13, Group: "Finisz"},
	{ID: StatusInvoiced, Label: "Zafakturowane", Description: "Faktura końcowa wystawiona", Order: 14, Group: "Finisz"},
	{ID: StatusCompleted, Label: "Zakończone", Description: "Zlecenie zamknięte", Order: 20, Group: "Finisz"},
	{ID: StatusCancelled, Label: "Anulowane", Description: "Klient zrezygnował lub zlecenie wstrzymane", Order: 30, Group: "Finisz"},
}

var systemStatusIDs = func() map[string]struct{} {
	ids := make(map[string]struct{}, len(baselineStatuses))
	for _, s := range baselineStatuses {
		ids[s.ID] = struct{}{}
	}
	return ids
}()

var ErrEmptyTaxonomy = errors.New("status taxonomy must contain at least one status with a label")

// BaselineStatuses returns a copy of the compiled system taxonomy.
func BaselineStatuses() []models.StatusDefinition {
	out := make([]models.StatusDefinition, len(baselineStatuses))
	for i, s := range baselineStatuses {
		s.IsSystem = true
		out[i] = s
	}
	return out
}

func IsSystemStatus(id string) bool {
	_, ok := systemStatusIDs[id]
	return ok
}

// SystemStatusIDs returns the system ids in baseline order.
func SystemStatusIDs() []string {
	ids := make([]string, len(baselineStatuses))
	for i, s := range baselineStatuses {
		ids[i] = s.ID
	}
	return ids
}

type storedDefinition struct {
	ID          *string `json:"id"`
	Label       *string `json:"label"`
	Description string  `json:"description"`
	Order       int     `json:"order"`
	Group       string  `json:"group"`
}

// ParseStoredDefinitions decodes a persisted taxonomy blob. ok is false when
// the blob is absent or not a JSON array; the caller should then use the
// baseline alone. Elements that fail to decode or lack an id or label are
// dropped individually.
func ParseStoredDefinitions(raw []byte) (defs []models.StatusDefinition, ok bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}

	defs = make([]models.StatusDefinition, 0, len(elems))
	for _, elem := range elems {
		var sd storedDefinition
		if err := json.Unmarshal(elem, &sd); err != nil {
			continue
		}
		if sd.ID == nil || sd.Label == nil || *sd.ID == "" || *sd.Label == "" {
			continue
		}
		defs = append(defs, models.StatusDefinition{
			ID:          *sd.ID,
			Label:       *sd.Label,
			Description: sd.Description,
			Order:       sd.Order,
			Group:       sd.Group,
		})
	}
	return defs, true
}

// MergeDefinitions combines operator statuses with the baseline. Entries of
// custom that reuse a system id are discarded, so system definitions always
// come from baseline. The result is stably sorted by Order with custom
// entries ahead of system entries on ties.
func MergeDefinitions(baseline, custom []models.StatusDefinition) []models.StatusDefinition {
	merged := make([]models.StatusDefinition, 0, len(custom)+len(baseline))
	for _, c := range custom {
		if IsSystemStatus(c.ID) {
			continue
		}
		c.IsSystem = false
		merged = append(merged, c)
	}
	for _, b := range baseline {
		b.IsSystem = true
		merged = append(merged, b)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Order < merged[j].Order
	})
	return merged
}

// NormalizeDefinitions prepares an operator edit for storage. Blank ids are
// filled by newID, text fields are trimmed, Order is renumbered from array
// position (1-based) and entries without a label are dropped.
func NormalizeDefinitions(defs []models.StatusDefinition, newID func() string) ([]models.StatusDefinition, error) {
	out := make([]models.StatusDefinition, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			d.ID = newID()
		}
		d.Label = strings.TrimSpace(d.Label)
		d.Description = strings.TrimSpace(d.Description)
		d.Group = strings.TrimSpace(d.Group)
		d.Order = i + 1
		d.IsSystem = IsSystemStatus(d.ID)
		if d.Label == "" {
			continue
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("duplicate status id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, ErrEmptyTaxonomy
	}
	return out, nil
}

// ContainsStatus reports whether id is present in defs.
func ContainsStatus(defs []models.StatusDefinition, id string) bool {
	for _, d := range defs {
		if d.ID == id {
			return true
		}
	}
	return false
}
