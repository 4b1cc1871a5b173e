// Package investigation holds the per-case progress state machine. Each
// location and each suspect consumes its own daily action and becomes
// available again on the next calendar day, with the daily limiter deciding
// the day boundary. All merges are additive: discovered clues, images, and
// findings only ever accumulate.
package investigation

import (
	"log/slog"
	"slices"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
)

// ErrAlreadyActedToday is the rejected state transition for a key that
// already consumed its daily action. It is a user-visible condition, not a
// fault.
var ErrAlreadyActedToday = errors.NewSentinel("already acted today")

// NewProgress creates the empty progress record for a freshly created case.
func NewProgress(caseID string) *models.InvestigationProgress {
	return &models.InvestigationProgress{
		CaseID:               caseID,
		VisitedLocations:     make(map[string]models.LocationVisit),
		InterrogatedSuspects: make(map[string]models.Interrogation),
		DiscoveredClues:      []string{},
		CurrentDay:           1,
		Findings:             []models.Finding{},
	}
}

// Machine applies daily-limited transitions to a progress record.
type Machine struct {
	limiter *DailyLimiter
}

func NewMachine(limiter *DailyLimiter) *Machine {
	return &Machine{limiter: limiter}
}

// CanVisit reports whether the location has its daily action available.
func (m *Machine) CanVisit(p *models.InvestigationProgress, locationID string) bool {
	return m.limiter.CanAct(p.VisitedLocations[locationID].LastVisitDate)
}

// CanInterrogate reports whether the suspect has their daily action available.
func (m *Machine) CanInterrogate(p *models.InvestigationProgress, suspectName string) bool {
	return m.limiter.CanAct(p.InterrogatedSuspects[suspectName].LastInterrogationDate)
}

// RecordVisit consumes the location's daily action and merges the produced
// artifacts into the record. Clues are deduplicated into the case-wide
// discovered list; repeat visits on the same day return ErrAlreadyActedToday
// without mutating anything.
func (m *Machine) RecordVisit(
	p *models.InvestigationProgress,
	locationID string,
	discoveredClues []string,
	generatedImages []string,
) error {
	if !m.CanVisit(p, locationID) {
		return errors.Wrap(ErrAlreadyActedToday, "record visit", slog.String("location_id", locationID))
	}

	m.advanceDay(p)

	visit := p.VisitedLocations[locationID]
	visit.VisitedAt = m.limiter.Now()
	visit.LastVisitDate = m.limiter.Today()
	visit.DiscoveredClues = mergeUnique(visit.DiscoveredClues, discoveredClues)
	visit.GeneratedImages = append(visit.GeneratedImages, generatedImages...)
	p.VisitedLocations[locationID] = visit

	p.DiscoveredClues = mergeUnique(p.DiscoveredClues, discoveredClues)
	return nil
}

// RecordInterrogation consumes the suspect's daily action and appends the
// question/answer session to the suspect's transcript.
func (m *Machine) RecordInterrogation(
	p *models.InvestigationProgress,
	suspectName string,
	session models.InterrogationSession,
) error {
	if !m.CanInterrogate(p, suspectName) {
		return errors.Wrap(ErrAlreadyActedToday, "record interrogation", slog.String("suspect", suspectName))
	}

	m.advanceDay(p)

	record := p.InterrogatedSuspects[suspectName]
	record.InterrogatedAt = m.limiter.Now()
	record.LastInterrogationDate = m.limiter.Today()
	session.Order = int64(len(record.Sessions))
	session.ID = session.Order + 1
	record.Sessions = append(record.Sessions, session)
	p.InterrogatedSuspects[suspectName] = record
	return nil
}

// AddFinding appends a finding tagged with its source and importance. New
// findings arrive fresh; everything older loses its freshness. Findings are
// never pruned for the lifetime of the case.
func (m *Machine) AddFinding(
	p *models.InvestigationProgress,
	content string,
	source models.FindingSource,
	importance models.FindingImportance,
) {
	for i := range p.Findings {
		p.Findings[i].Fresh = false
	}
	p.Findings = append(p.Findings, models.Finding{
		Content:    content,
		Source:     source,
		Importance: importance,
		Fresh:      true,
		CreatedAt:  m.limiter.Now(),
	})
}

// advanceDay bumps CurrentDay the first time an action lands on a calendar
// date later than every previous action.
func (m *Machine) advanceDay(p *models.InvestigationProgress) {
	today := m.limiter.Today()
	latest := ""
	for _, visit := range p.VisitedLocations {
		if visit.LastVisitDate > latest {
			latest = visit.LastVisitDate
		}
	}
	for _, record := range p.InterrogatedSuspects {
		if record.LastInterrogationDate > latest {
			latest = record.LastInterrogationDate
		}
	}
	if latest != "" && today > latest {
		p.CurrentDay++
	}
}

func mergeUnique(existing, incoming []string) []string {
	for _, item := range incoming {
		if !slices.Contains(existing, item) {
			existing = append(existing, item)
		}
	}
	return existing
}
