package models

import "time"

// InvestigationProgress holds the mutable state of one case's investigation.
// List fields only ever grow; per-key records are mutated at most once per
// calendar day by the daily limiter.
type InvestigationProgress struct {
	CaseID               string                   `json:"caseId"`
	VisitedLocations     map[string]LocationVisit `json:"visitedLocations"`
	InterrogatedSuspects map[string]Interrogation `json:"interrogatedSuspects"`
	DiscoveredClues      []string                 `json:"discoveredClues"`
	CurrentDay           int                      `json:"currentDay"`
	Findings             []Finding                `json:"investigationFindings"`
}

// LocationVisit records the visits to one location, keyed by location id.
type LocationVisit struct {
	VisitedAt       time.Time `json:"visitedAt"`
	LastVisitDate   string    `json:"lastVisitDate"`
	DiscoveredClues []string  `json:"discoveredClues"`
	GeneratedImages []string  `json:"generatedImages"`
}

// Interrogation records the interrogations of one suspect, keyed by name.
type Interrogation struct {
	InterrogatedAt        time.Time              `json:"interrogatedAt"`
	LastInterrogationDate string                 `json:"lastInterrogationDate"`
	Sessions              []InterrogationSession `json:"sessions"`
}

// InterrogationSession is a question and answer pair from one interrogation.
type InterrogationSession struct {
	ID       int64  `json:"id"`
	Order    int64  `json:"order"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	AudioURL string `json:"audioUrl,omitempty"`
}

type FindingSource string

const (
	FindingSourceInterrogation FindingSource = "interrogation"
	FindingSourceLocationVisit FindingSource = "location_visit"
	FindingSourceClueDiscovery FindingSource = "clue_discovery"
)

type FindingImportance string

const (
	FindingImportanceCritical  FindingImportance = "critical"
	FindingImportanceImportant FindingImportance = "important"
	FindingImportanceMinor     FindingImportance = "minor"
)

// Finding is one accumulated piece of investigation knowledge. Findings are
// never pruned for the lifetime of the case.
type Finding struct {
	Content    string            `json:"content"`
	Source     FindingSource     `json:"source"`
	Importance FindingImportance `json:"importance"`
	Fresh      bool              `json:"fresh"`
	CreatedAt  time.Time         `json:"createdAt"`
}
