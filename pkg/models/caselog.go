package models

import "time"

// UnitUnspecified is the sentinel label used when an event carries no
// organizational unit. Events with a NULL unit are normalized to this
// value before any grouping happens.
const UnitUnspecified = "Unspecified"

// InitialState is the state code that marks the registration of a case.
const InitialState = 0

// Procedure identifies one administrative procedure whose case log is
// available for analysis.
type Procedure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// StateInfo is one entry of a procedure's state catalog. The terminal
// candidate flag is only a hint for pre-selecting a default terminal-state
// set in the UI; it never affects engine semantics.
type StateInfo struct {
	Code              int    `json:"code"`
	Name              string `json:"name"`
	TerminalCandidate bool   `json:"terminal_candidate"`
}

// StateCatalog maps state codes to display names.
type StateCatalog map[int]string

// Name returns the display name for a state code, falling back to a
// synthetic "S-<code>" label for codes missing from the catalog.
func (c StateCatalog) Name(code int) string {
	if name, ok := c[code]; ok {
		return name
	}
	return syntheticStateName(code)
}

// Case is one administrative file ("expediente"). Region and applicant
// attributes are opaque to the engine core and only used for grouping.
type Case struct {
	ID               string    `json:"id"`
	StartDate        time.Time `json:"start_date"`
	ProvinceCode     string    `json:"province_code"`
	Province         string    `json:"province"`
	MunicipalityCode string    `json:"municipality_code"`
	Municipality     string    `json:"municipality"`
	IsOnline         bool      `json:"is_online"`
	IsCompany        bool      `json:"is_company"`
}

// Event is one recorded state transition ("trámite") for a case.
// SeqNo is the insertion order within the source table; it is the
// deterministic tie-break for events sharing an identical timestamp.
type Event struct {
	CaseID    string    `json:"case_id"`
	StateCode int       `json:"state_code"`
	EventTime time.Time `json:"event_time"`
	Unit      string    `json:"unit"`
	SeqNo     int       `json:"seq_no"`
}
