package investigation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/repositories"
)

var (
	ErrUnknownLocation = errors.NewSentinel("unknown location")
	ErrUnknownSuspect  = errors.NewSentinel("unknown suspect")
)

// Service runs the daily-limited investigation actions against persisted
// cases. Mutations follow read-merge-write on the whole progress document.
type Service struct {
	cases   *repositories.CaseRepository
	machine *Machine
	text    ai.TextGenerator
	logger  *slog.Logger
}

func NewService(
	cases *repositories.CaseRepository,
	limiter *DailyLimiter,
	text ai.TextGenerator,
	logger *slog.Logger,
) *Service {
	return &Service{
		cases:   cases,
		machine: NewMachine(limiter),
		text:    text,
		logger:  logger.With("source", "investigation.Service"),
	}
}

// VisitResult is what one location visit yielded.
type VisitResult struct {
	LocationID      string                 `json:"locationId"`
	FullName        string                 `json:"fullName"`
	DiscoveredClues []models.ProcessedClue `json:"discoveredClues"`
	AlreadyKnown    int                    `json:"alreadyKnown"`
}

// VisitLocation consumes the location's daily action and reveals the clues
// whose discovery difficulty the investigation has caught up with: day N
// opens difficulties up to N+2, so the hardest evidence takes days of
// revisiting to surface.
func (s *Service) VisitLocation(ctx context.Context, caseID, locationID string) (*VisitResult, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	node, ok := findNode(c.Map, locationID)
	if !ok {
		return nil, errors.Wrap(ErrUnknownLocation, "visit location", slog.String("location_id", locationID))
	}

	progress, err := s.cases.GetProgress(ctx, caseID)
	if err != nil {
		return nil, err
	}

	var (
		revealed     []models.ProcessedClue
		revealedText []string
		alreadyKnown int
	)
	for _, clue := range c.ProcessedClues[node.FullName] {
		if clue.Discovery.Difficulty > progress.CurrentDay+2 {
			continue
		}
		if slices.Contains(progress.DiscoveredClues, clue.Content) {
			alreadyKnown++
			continue
		}
		revealed = append(revealed, clue)
		revealedText = append(revealedText, clue.Content)
	}

	if err = s.machine.RecordVisit(progress, locationID, revealedText, nil); err != nil {
		return nil, err
	}
	for _, clue := range revealed {
		s.machine.AddFinding(progress, clue.Content, models.FindingSourceClueDiscovery, clueImportance(clue.Category))
	}
	s.machine.AddFinding(progress,
		fmt.Sprintf("Visited %s", node.FullName),
		models.FindingSourceLocationVisit, models.FindingImportanceMinor)

	if err = s.cases.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}

	return &VisitResult{
		LocationID:      node.ID,
		FullName:        node.FullName,
		DiscoveredClues: revealed,
		AlreadyKnown:    alreadyKnown,
	}, nil
}

// InterrogationResult is one question/answer exchange with a suspect. Order
// identifies the session within the suspect's transcript so audio can be
// attached to it later.
type InterrogationResult struct {
	Suspect  string `json:"suspect"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Order    int64  `json:"order"`
}

// CheckInterrogation reports whether the suspect can be interrogated right
// now without consuming anything: unknown suspects and spent daily actions
// come back as the same sentinels Interrogate would return.
func (s *Service) CheckInterrogation(ctx context.Context, caseID, suspectName string) error {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return err
	}
	suspect, ok := findSuspect(c.Story.Suspects, suspectName)
	if !ok {
		return errors.Wrap(ErrUnknownSuspect, "check interrogation", slog.String("suspect", suspectName))
	}
	progress, err := s.cases.GetProgress(ctx, caseID)
	if err != nil {
		return err
	}
	if !s.machine.CanInterrogate(progress, suspect.Name) {
		return errors.Wrap(ErrAlreadyActedToday, "check interrogation", slog.String("suspect", suspect.Name))
	}
	return nil
}

// Interrogate consumes the suspect's daily action: it generates the suspect's
// in-character answer, appends the session to the transcript, and persists
// the merged progress.
func (s *Service) Interrogate(ctx context.Context, caseID, suspectName, question string) (*InterrogationResult, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	suspect, ok := findSuspect(c.Story.Suspects, suspectName)
	if !ok {
		return nil, errors.Wrap(ErrUnknownSuspect, "interrogate", slog.String("suspect", suspectName))
	}

	progress, err := s.cases.GetProgress(ctx, caseID)
	if err != nil {
		return nil, err
	}
	// Check the limit before burning a generation call on a rejected action.
	if !s.machine.CanInterrogate(progress, suspect.Name) {
		return nil, errors.Wrap(ErrAlreadyActedToday, "interrogate", slog.String("suspect", suspect.Name))
	}

	answer, err := s.text.Generate(ctx, interrogationPrompt(c.Story, suspect, progress, question))
	if err != nil {
		return nil, errors.Wrap(err, "generate interrogation answer", slog.String("suspect", suspect.Name))
	}
	answer = strings.TrimSpace(answer)

	if err = s.machine.RecordInterrogation(progress, suspect.Name, models.InterrogationSession{
		Question: question,
		Answer:   answer,
	}); err != nil {
		return nil, err
	}
	s.machine.AddFinding(progress,
		fmt.Sprintf("%s: %q", suspect.Name, answer),
		models.FindingSourceInterrogation, models.FindingImportanceImportant)

	if err = s.cases.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}

	sessions := progress.InterrogatedSuspects[suspect.Name].Sessions
	return &InterrogationResult{
		Suspect:  suspect.Name,
		Question: question,
		Answer:   answer,
		Order:    sessions[len(sessions)-1].Order,
	}, nil
}

// AttachSessionAudio sets the audio URL on an already recorded interrogation
// session. Audio synthesis runs after the answer is persisted, so a missing
// URL only ever means the synthesis hasn't finished or failed.
func (s *Service) AttachSessionAudio(ctx context.Context, caseID, suspectName string, order int64, audioURL string) error {
	progress, err := s.cases.GetProgress(ctx, caseID)
	if err != nil {
		return err
	}
	record, ok := progress.InterrogatedSuspects[suspectName]
	if !ok {
		return errors.Wrap(ErrUnknownSuspect, "attach session audio", slog.String("suspect", suspectName))
	}
	for i := range record.Sessions {
		if record.Sessions[i].Order == order {
			record.Sessions[i].AudioURL = audioURL
			progress.InterrogatedSuspects[suspectName] = record
			return s.cases.SaveProgress(ctx, progress)
		}
	}
	return errors.New("interrogation session not found",
		slog.String("suspect", suspectName), slog.Int64("order", order))
}

// Verdict scores the player's final accusation.
type Verdict struct {
	Accused    string `json:"accused"`
	Correct    bool   `json:"correct"`
	Killer     string `json:"killer"`
	CluesFound int    `json:"cluesFound"`
	CluesTotal int    `json:"cluesTotal"`
	Score      int    `json:"score"`
	DaysTaken  int    `json:"daysTaken"`
}

// Accuse ends the investigation: naming the killer earns 60 points, the rest
// scales with how much of the evidence was uncovered.
func (s *Service) Accuse(ctx context.Context, caseID, suspectName string) (*Verdict, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	suspect, ok := findSuspect(c.Story.Suspects, suspectName)
	if !ok {
		return nil, errors.Wrap(ErrUnknownSuspect, "accuse", slog.String("suspect", suspectName))
	}
	progress, err := s.cases.GetProgress(ctx, caseID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, locationClues := range c.ProcessedClues {
		total += len(locationClues)
	}

	verdict := Verdict{
		Accused:    suspect.Name,
		Correct:    suspect.Name == c.Story.Killer,
		Killer:     c.Story.Killer,
		CluesFound: len(progress.DiscoveredClues),
		CluesTotal: total,
		DaysTaken:  progress.CurrentDay,
	}
	if verdict.Correct {
		verdict.Score = 60
	}
	if total > 0 {
		verdict.Score += 40 * verdict.CluesFound / total
	}
	return &verdict, nil
}

// Progress exposes the current progress document.
func (s *Service) Progress(ctx context.Context, caseID string) (*models.InvestigationProgress, error) {
	return s.cases.GetProgress(ctx, caseID)
}

func interrogationPrompt(story models.Story, suspect models.Suspect, progress *models.InvestigationProgress, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s, a suspect in a murder investigation set in %s.\n",
		suspect.Name, suspect.Role, story.Setting)
	fmt.Fprintf(&b, "The victim was %s, %s. Your claimed alibi: %s. Your personality: %s.\n",
		story.Victim.Name, story.Victim.Profession, suspect.Alibi, suspect.Personality)
	if suspect.IsKiller {
		b.WriteString("You are the killer. Never confess. Deflect, stay consistent with your alibi, and let small cracks show only under pressure.\n")
	} else {
		b.WriteString("You are innocent, but you have things to hide. Answer truthfully about the murder itself.\n")
	}
	if sessions := progress.InterrogatedSuspects[suspect.Name].Sessions; len(sessions) > 0 {
		b.WriteString("Earlier in the investigation you were asked:\n")
		for _, session := range sessions {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", session.Question, session.Answer)
		}
	}
	fmt.Fprintf(&b, "\nThe detective asks: %s\n\nAnswer in character, two to four sentences, plain text.", question)
	return b.String()
}

func clueImportance(category models.ClueCategory) models.FindingImportance {
	switch category {
	case models.ClueCategoryDirect:
		return models.FindingImportanceCritical
	case models.ClueCategoryRedHerring:
		return models.FindingImportanceMinor
	default:
		return models.FindingImportanceImportant
	}
}

func findNode(nodes []models.LocationNode, id string) (models.LocationNode, bool) {
	for _, node := range nodes {
		if node.ID == id {
			return node, true
		}
	}
	return models.LocationNode{}, false
}

func findSuspect(suspects []models.Suspect, name string) (models.Suspect, bool) {
	for _, suspect := range suspects {
		if strings.EqualFold(suspect.Name, name) {
			return suspect, true
		}
	}
	return models.Suspect{}, false
}
