package clues_test

import (
	"testing"

	"github.com/myrjola/whodunit/internal/clues"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	suspects := []string{"Raj Malhotra", "Mira Chen", "Theo Brandt"}
	killer := "Raj Malhotra"

	tests := []struct {
		name string
		text string
		want models.ClueCategory
	}{
		{
			name: "killer name is direct",
			text: "A monogrammed cufflink belonging to Raj Malhotra",
			want: models.ClueCategoryDirect,
		},
		{
			name: "killer name wins even with other suspects present",
			text: "Mira Chen said she lent the key to Raj Malhotra that evening",
			want: models.ClueCategoryDirect,
		},
		{
			name: "other suspect is a red herring",
			text: "Theo Brandt's scarf draped over the chair",
			want: models.ClueCategoryRedHerring,
		},
		{
			name: "no suspect named is indirect",
			text: "A half-burnt letter with an illegible signature",
			want: models.ClueCategoryIndirect,
		},
		{
			name: "matching is case-insensitive",
			text: "the initials RAJ MALHOTRA scratched into the desk",
			want: models.ClueCategoryDirect,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, clues.Categorize(tt.text, killer, suspects))
		})
	}
}

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.ClueType
	}{
		{
			name: "biological marker",
			text: "Dried blood on the window sill",
			want: models.ClueTypeBiologicalTrace,
		},
		{
			name: "biological beats digital",
			text: "Camera footage shows a bloodied glove",
			want: models.ClueTypeBiologicalTrace,
		},
		{
			name: "digital marker",
			text: "The access log shows a midnight entry",
			want: models.ClueTypeDigitalRecord,
		},
		{
			name: "testimonial marker",
			text: "The janitor saw someone leave through the side door",
			want: models.ClueTypeWitnessTestimony,
		},
		{
			name: "environmental marker",
			text: "Drag marks leading toward the storage room",
			want: models.ClueTypeEnvironmentalAnomaly,
		},
		{
			name: "default is physical object",
			text: "A broken pocket watch stopped at 23:40",
			want: models.ClueTypePhysicalObject,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, clues.ClassifyType(tt.text))
		})
	}
}

func TestAssignDiscovery(t *testing.T) {
	tests := []struct {
		name         string
		category     models.ClueCategory
		clueType     models.ClueType
		wantRequires models.DiscoveryRequirement
		wantDiff     int
	}{
		{
			name:         "direct biological caps at five",
			category:     models.ClueCategoryDirect,
			clueType:     models.ClueTypeBiologicalTrace,
			wantRequires: models.DiscoveryForensicKit,
			wantDiff:     5,
		},
		{
			name:         "indirect digital",
			category:     models.ClueCategoryIndirect,
			clueType:     models.ClueTypeDigitalRecord,
			wantRequires: models.DiscoveryHack,
			wantDiff:     3,
		},
		{
			name:         "red herring physical object",
			category:     models.ClueCategoryRedHerring,
			clueType:     models.ClueTypePhysicalObject,
			wantRequires: models.DiscoveryDeepSearch,
			wantDiff:     2,
		},
		{
			name:         "indirect environmental",
			category:     models.ClueCategoryIndirect,
			clueType:     models.ClueTypeEnvironmentalAnomaly,
			wantRequires: models.DiscoveryObservation,
			wantDiff:     3,
		},
		{
			name:         "red herring testimony",
			category:     models.ClueCategoryRedHerring,
			clueType:     models.ClueTypeWitnessTestimony,
			wantRequires: models.DiscoveryWitnessHelp,
			wantDiff:     2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clues.AssignDiscovery(tt.category, tt.clueType)
			require.Equal(t, tt.wantRequires, got.Requires)
			require.Equal(t, tt.wantDiff, got.Difficulty)
			require.GreaterOrEqual(t, got.Difficulty, 1)
			require.LessOrEqual(t, got.Difficulty, 5)
		})
	}
}

func TestAssignDiscoveryDifficultyBounds(t *testing.T) {
	categories := []models.ClueCategory{
		models.ClueCategoryDirect, models.ClueCategoryIndirect, models.ClueCategoryRedHerring,
	}
	types := []models.ClueType{
		models.ClueTypePhysicalObject, models.ClueTypeDigitalRecord, models.ClueTypeBiologicalTrace,
		models.ClueTypeWitnessTestimony, models.ClueTypeEnvironmentalAnomaly,
	}
	for _, category := range categories {
		for _, clueType := range types {
			got := clues.AssignDiscovery(category, clueType)
			require.GreaterOrEqual(t, got.Difficulty, 1, "category=%s type=%s", category, clueType)
			require.LessOrEqual(t, got.Difficulty, 5, "category=%s type=%s", category, clueType)
		}
	}
}

func TestRelatedSuspects(t *testing.T) {
	suspects := []string{"Raj", "Mira", "Theo"}
	got := clues.RelatedSuspects("mira told theo to wait by the gate", suspects)
	require.Equal(t, []string{"Mira", "Theo"}, got)

	require.Empty(t, clues.RelatedSuspects("an unsigned note", suspects))
}

func testStory() models.Story {
	return models.Story{
		Title:   "Death at the Meridian Lab",
		Setting: "a private research campus",
		Victim: models.Victim{
			Name:              "Elena Vasquez",
			Profession:        "biochemist",
			LastKnownLocation: "Lab",
			DeathTimeEstimate: "23:40",
			CauseOfDeath:      "poisoning",
		},
		Suspects: []models.Suspect{
			{Name: "Raj", Role: "security chief", Alibi: "patrolling", Motives: []string{"blackmail"}, IsKiller: true, Personality: "guarded"},
			{Name: "Mira", Role: "lab assistant", Alibi: "at home", Motives: []string{"rivalry"}, Personality: "nervous"},
		},
		Killer:    "Raj",
		Locations: []string{"Lab", "Office"},
		Clues: map[string][]string{
			"Lab":    {"Detective finds Raj's bloodied knife"},
			"Office": {"A shredded memo about Mira's demotion"},
		},
		Witnesses: map[string][]models.Witness{
			"Office": {
				{
					Name:        "Priya",
					Role:        "night cleaner",
					Background:  "works the late shift",
					Testimony:   "I heard Raj arguing with the victim around 23:40",
					Reliability: "high",
				},
			},
		},
		Timeline: []models.TimelineEvent{
			{Time: "22:00", Event: "Victim last seen entering the Lab"},
			{Time: "23:40", Event: "Estimated time of death"},
		},
	}
}

func TestClassifyKnifeScenario(t *testing.T) {
	story := testStory()
	got := clues.Classify("Detective finds Raj's bloodied knife", "Lab", story)

	require.Equal(t, models.ClueCategoryDirect, got.Category)
	require.Equal(t, models.ClueTypeBiologicalTrace, got.Type)
	require.Equal(t, models.DiscoveryForensicKit, got.Discovery.Requires)
	require.Equal(t, 5, got.Discovery.Difficulty)
	require.Equal(t, "UV Light and Sample Kit", got.Discovery.RequiresItem)
	require.Equal(t, []string{"Raj"}, got.RelatedSuspects)
	require.Equal(t, "Lab", got.LocationContext)
}

func TestProcess(t *testing.T) {
	story := testStory()
	processed := clues.Process(story)

	require.Len(t, processed["Lab"], 1)
	require.Len(t, processed["Office"], 2, "raw clue plus folded witness testimony")

	testimony := processed["Office"][1]
	require.Equal(t, models.ClueTypeWitnessTestimony, testimony.Type)
	require.Equal(t, "I heard Raj arguing with the victim around 23:40", testimony.Content)
	require.Equal(t, models.ClueCategoryDirect, testimony.Category)
	require.Equal(t, models.DiscoveryWitnessHelp, testimony.Discovery.Requires)
	require.Equal(t, 5, testimony.Discovery.Difficulty, "direct testimony is hardest to earn")
	require.Contains(t, testimony.Discovery.RequiresWitnessHelp, "Priya")
	require.Contains(t, testimony.Discovery.RequiresWitnessHelp, "high")
	require.Equal(t, "Estimated time of death", testimony.TimeRelevance)
}

func TestProcessIndirectTestimonyDifficulty(t *testing.T) {
	story := testStory()
	story.Witnesses["Office"][0].Testimony = "I heard a door slam around midnight"
	processed := clues.Process(story)

	testimony := processed["Office"][1]
	require.Equal(t, models.ClueCategoryIndirect, testimony.Category)
	require.Equal(t, 3, testimony.Discovery.Difficulty)
}
