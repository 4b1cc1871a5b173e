package models

// Story is the immutable narrative core of a case. It is assembled stage by
// stage by the case generation orchestrator and never mutated afterwards.
type Story struct {
	Title     string               `json:"title" validate:"required"`
	Setting   string               `json:"setting" validate:"required"`
	Victim    Victim               `json:"victim"`
	Suspects  []Suspect            `json:"suspects" validate:"min=1,dive"`
	Killer    string               `json:"killer" validate:"required"`
	Locations []string             `json:"locations" validate:"min=1,unique"`
	Clues     map[string][]string  `json:"clues"`
	Witnesses map[string][]Witness `json:"witnesses"`
	Timeline  []TimelineEvent      `json:"timeline"`
}

// KillerSuspect returns the suspect flagged as the killer and whether exactly
// one suspect carries the flag. A story without exactly one killer is invalid.
func (s Story) KillerSuspect() (Suspect, bool) {
	var (
		killer Suspect
		count  int
	)
	for _, suspect := range s.Suspects {
		if suspect.IsKiller {
			killer = suspect
			count++
		}
	}
	return killer, count == 1 && killer.Name == s.Killer
}

type Victim struct {
	Name              string `json:"name" validate:"required"`
	Profession        string `json:"profession" validate:"required"`
	LastKnownLocation string `json:"lastKnownLocation" validate:"required"`
	DeathTimeEstimate string `json:"deathTimeEstimate" validate:"required"`
	CauseOfDeath      string `json:"causeOfDeath" validate:"required"`
	// Portrait is an opaque URI set after generation. Empty when portrait
	// generation failed or hasn't run.
	Portrait string `json:"portrait,omitempty"`
}

type Suspect struct {
	Name        string   `json:"name" validate:"required"`
	Role        string   `json:"role" validate:"required"`
	Alibi       string   `json:"alibi" validate:"required"`
	Motives     []string `json:"motives" validate:"min=1"`
	IsKiller    bool     `json:"isKiller"`
	Personality string   `json:"personality" validate:"required"`
	Portrait    string   `json:"portrait,omitempty"`
}

type Witness struct {
	Name         string `json:"name" validate:"required"`
	Role         string `json:"role"`
	Background   string `json:"background"`
	Testimony    string `json:"testimony" validate:"required"`
	Reliability  string `json:"reliability"`
	HiddenAgenda string `json:"hiddenAgenda"`
}

type TimelineEvent struct {
	Time  string `json:"time" validate:"required"`
	Event string `json:"event" validate:"required"`
}

// LocationNode is one node of the investigation map. Connections are treated
// as undirected and must reference ids present in the node set.
type LocationNode struct {
	ID          string   `json:"id"`
	FullName    string   `json:"fullName"`
	Connections []string `json:"connections"`
}

// ClueType classifies the evidentiary nature of a clue.
type ClueType string

const (
	ClueTypePhysicalObject       ClueType = "Physical Object"
	ClueTypeDigitalRecord        ClueType = "Digital Record"
	ClueTypeBiologicalTrace      ClueType = "Biological Trace"
	ClueTypeWitnessTestimony     ClueType = "Witness Testimony"
	ClueTypeEnvironmentalAnomaly ClueType = "Environmental Anomaly"
)

// ClueCategory tells how strongly a clue points at the killer.
type ClueCategory string

const (
	ClueCategoryDirect     ClueCategory = "direct"
	ClueCategoryIndirect   ClueCategory = "indirect"
	ClueCategoryRedHerring ClueCategory = "red_herring"
)

// DiscoveryRequirement is the in-game mechanism needed to reveal a clue.
type DiscoveryRequirement string

const (
	DiscoveryForensicKit DiscoveryRequirement = "forensic_kit"
	DiscoveryHack        DiscoveryRequirement = "hack"
	DiscoveryWitnessHelp DiscoveryRequirement = "witness_help"
	DiscoveryObservation DiscoveryRequirement = "observation"
	DiscoveryDeepSearch  DiscoveryRequirement = "deep_search"
)

// Discovery describes what the player needs to do to reveal a clue.
type Discovery struct {
	Requires            DiscoveryRequirement `json:"requires"`
	Difficulty          int                  `json:"difficulty"`
	RequiresItem        string               `json:"requiresItem,omitempty"`
	RequiresAction      string               `json:"requiresAction,omitempty"`
	RequiresWitnessHelp string               `json:"requiresWitnessHelp,omitempty"`
}

// ProcessedClue is a clue after deterministic classification. It is derived
// from raw story text, never hand-authored.
type ProcessedClue struct {
	Type            ClueType     `json:"type"`
	Content         string       `json:"content"`
	Category        ClueCategory `json:"category"`
	Discovery       Discovery    `json:"discovery"`
	RelatedSuspects []string     `json:"relatedSuspects"`
	TimeRelevance   string       `json:"timeRelevance,omitempty"`
	LocationContext string       `json:"locationContext"`
}

// ProcessedClues groups classified clues by location name.
type ProcessedClues map[string][]ProcessedClue

// Case is one complete generated mystery instance bound to a player.
type Case struct {
	ID             string         `json:"id"`
	Story          Story          `json:"story"`
	ProcessedClues ProcessedClues `json:"processedClues"`
	Map            []LocationNode `json:"map"`
	// Framing is the narrative briefing shown to the player before day one.
	Framing string `json:"framing,omitempty"`
}
