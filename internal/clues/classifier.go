// Package clues deterministically classifies raw clue and witness text into
// structured clue records. It runs no generative calls: the whole pipeline is
// a pure function of already-generated story text, so it can be tested in
// isolation and re-run without cost.
package clues

import (
	"fmt"
	"strings"

	"github.com/myrjola/whodunit/internal/models"
)

// typeMarkers are checked in fixed priority order. The first group with a
// matching keyword wins, so a clue mentioning both blood and a camera is a
// biological trace.
var typeMarkers = []struct {
	clueType models.ClueType
	keywords []string
}{
	{models.ClueTypeBiologicalTrace, []string{"blood", "dna", "fingerprint"}},
	{models.ClueTypeDigitalRecord, []string{"computer", "log", "camera", "footage"}},
	{models.ClueTypeWitnessTestimony, []string{"witness", "saw", "heard"}},
	{models.ClueTypeEnvironmentalAnomaly, []string{"weather", "temperature", "marks"}},
}

// Categorize decides how strongly a clue points at the killer. A mention of
// the killer's name always wins even when other suspects are named too.
func Categorize(text, killer string, suspectNames []string) models.ClueCategory {
	lower := strings.ToLower(text)
	if killer != "" && strings.Contains(lower, strings.ToLower(killer)) {
		return models.ClueCategoryDirect
	}
	for _, name := range suspectNames {
		if name == killer {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			return models.ClueCategoryRedHerring
		}
	}
	return models.ClueCategoryIndirect
}

// ClassifyType maps clue text to an evidentiary type via the keyword table.
// Physical object is the default when nothing matches.
func ClassifyType(text string) models.ClueType {
	lower := strings.ToLower(text)
	for _, group := range typeMarkers {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				return group.clueType
			}
		}
	}
	return models.ClueTypePhysicalObject
}

const maxDifficulty = 5

// AssignDiscovery derives the discovery mechanism and difficulty. The
// category sets the base difficulty and the type overrides the mechanism.
func AssignDiscovery(category models.ClueCategory, clueType models.ClueType) models.Discovery {
	difficulty := 1
	switch category {
	case models.ClueCategoryDirect:
		difficulty += 4
	case models.ClueCategoryIndirect:
		difficulty += 2
	case models.ClueCategoryRedHerring:
		difficulty++
	}

	discovery := models.Discovery{
		Requires:   models.DiscoveryDeepSearch,
		Difficulty: difficulty,
	}
	switch clueType {
	case models.ClueTypeBiologicalTrace:
		discovery.Requires = models.DiscoveryForensicKit
		discovery.Difficulty++
		discovery.RequiresItem = "UV Light and Sample Kit"
	case models.ClueTypeDigitalRecord:
		discovery.Requires = models.DiscoveryHack
		discovery.RequiresAction = "Bypass Security"
	case models.ClueTypeWitnessTestimony:
		discovery.Requires = models.DiscoveryWitnessHelp
		discovery.RequiresWitnessHelp = "Build Trust"
	case models.ClueTypeEnvironmentalAnomaly:
		discovery.Requires = models.DiscoveryObservation
		discovery.RequiresItem = "Environmental Scanner"
	}

	if discovery.Difficulty > maxDifficulty {
		discovery.Difficulty = maxDifficulty
	}
	return discovery
}

// RelatedSuspects returns every suspect whose name appears in the clue text,
// preserving suspect-list order.
func RelatedSuspects(text string, suspectNames []string) []string {
	lower := strings.ToLower(text)
	var related []string
	for _, name := range suspectNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			related = append(related, name)
		}
	}
	return related
}

// timeRelevance returns the first timeline event whose timestamp appears in
// the clue text, or empty when none matches.
func timeRelevance(text string, timeline []models.TimelineEvent) string {
	for _, event := range timeline {
		if event.Time != "" && strings.Contains(text, event.Time) {
			return event.Event
		}
	}
	return ""
}

// Classify builds the full structured record for one raw clue text.
func Classify(text, location string, story models.Story) models.ProcessedClue {
	suspectNames := make([]string, len(story.Suspects))
	for i, suspect := range story.Suspects {
		suspectNames[i] = suspect.Name
	}

	category := Categorize(text, story.Killer, suspectNames)
	clueType := ClassifyType(text)

	return models.ProcessedClue{
		Type:            clueType,
		Content:         text,
		Category:        category,
		Discovery:       AssignDiscovery(category, clueType),
		RelatedSuspects: RelatedSuspects(text, suspectNames),
		TimeRelevance:   timeRelevance(text, story.Timeline),
		LocationContext: location,
	}
}

// Process classifies every raw clue of the story and folds each witness's
// testimony into the location's clue list as a synthetic testimony clue.
func Process(story models.Story) models.ProcessedClues {
	suspectNames := make([]string, len(story.Suspects))
	for i, suspect := range story.Suspects {
		suspectNames[i] = suspect.Name
	}

	processed := make(models.ProcessedClues, len(story.Clues))
	for location, texts := range story.Clues {
		records := make([]models.ProcessedClue, 0, len(texts))
		for _, text := range texts {
			records = append(records, Classify(text, location, story))
		}
		processed[location] = records
	}

	for location, witnesses := range story.Witnesses {
		for _, witness := range witnesses {
			processed[location] = append(processed[location], testimonyClue(witness, location, story, suspectNames))
		}
	}

	return processed
}

// testimonyClue turns a witness statement into a clue. The testimony text is
// carried unmodified; the difficulty depends on how directly it implicates
// the killer and the discovery text surfaces the witness's reliability.
func testimonyClue(witness models.Witness, location string, story models.Story, suspectNames []string) models.ProcessedClue {
	category := Categorize(witness.Testimony, story.Killer, suspectNames)
	difficulty := 3
	if category == models.ClueCategoryDirect {
		difficulty = maxDifficulty
	}

	return models.ProcessedClue{
		Type:     models.ClueTypeWitnessTestimony,
		Content:  witness.Testimony,
		Category: category,
		Discovery: models.Discovery{
			Requires:            models.DiscoveryWitnessHelp,
			Difficulty:          difficulty,
			RequiresWitnessHelp: fmt.Sprintf("Build Trust with %s (%s reliability)", witness.Name, witness.Reliability),
		},
		RelatedSuspects: RelatedSuspects(witness.Testimony, suspectNames),
		TimeRelevance:   timeRelevance(witness.Testimony, story.Timeline),
		LocationContext: location,
	}
}
