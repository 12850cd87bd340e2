package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/shift-sync-api/internal/models"
)

// ConflictDetector classifies a proposal against a snapshot of committed
// shifts and externally observed events. Evaluate is pure and total: it never
// blocks, never mutates its inputs, and never fails; malformed input yields a
// hard conflict with a specific reason code instead of an error.
type ConflictDetector struct {
	// AllowMultipleAllDay permits several all-day shifts per owner per day.
	AllowMultipleAllDay bool
}

// DetectorInput is the snapshot a single evaluation runs against. OwnerShifts
// are the committed shifts of the target owner; for swaps they double as the
// destination set for the counterpart shift, and CounterpartOwnerShifts holds
// the other owner's committed shifts.
type DetectorInput struct {
	Proposal               models.ChangeProposal
	Payload                models.ShiftPayload
	TargetShift            *models.Shift
	CounterpartShift       *models.Shift
	OwnerShifts            []models.Shift
	CounterpartOwnerShifts []models.Shift
	ExternalEvents         []models.ExternalEvent
}

// Evaluate returns the conflict verdict for the proposal. Hard wins over soft
// when both trigger; ReasonCodes reports every triggered reason in order.
func (d ConflictDetector) Evaluate(input DetectorInput) models.ConflictVerdict {
	eval := &evaluation{}

	switch input.Proposal.Kind {
	case models.ProposalKindDelete:
		if input.TargetShift == nil {
			eval.hard(models.ReasonTargetNotFound)
		}
		// Removing a shift cannot introduce an overlap.
	case models.ProposalKindCreate:
		d.evaluateUpsert(eval, input, nil)
	case models.ProposalKindModify:
		if input.TargetShift == nil {
			eval.hard(models.ReasonTargetNotFound)
			break
		}
		d.evaluateUpsert(eval, input, input.TargetShift)
	case models.ProposalKindSwap:
		d.evaluateSwap(eval, input)
	default:
		eval.hard(models.ReasonMalformedRange)
	}

	if input.Payload.Resurrection {
		eval.soft(models.ReasonResurrection)
	}

	return eval.verdict()
}

// evaluateUpsert covers create and modify: project the resulting shift, then
// check it against the owner's committed shifts (hard) and the owner's
// external events (soft).
func (d ConflictDetector) evaluateUpsert(eval *evaluation, input DetectorInput, target *models.Shift) {
	resulting, ok := projectShift(input.Payload, target)
	if !ok {
		eval.hard(models.ReasonMalformedRange)
		return
	}
	exclude := map[string]struct{}{}
	if target != nil {
		exclude[target.ID] = struct{}{}
	}
	d.checkCommitted(eval, resulting, input.OwnerShifts, exclude)
	d.checkExternal(eval, resulting, input.ExternalEvents, input.Payload.ExternalRef)
}

// evaluateSwap exchanges the two shifts' owners and cross-checks each
// resulting shift against its destination owner's schedule, excluding the two
// shifts involved.
func (d ConflictDetector) evaluateSwap(eval *evaluation, input DetectorInput) {
	if input.TargetShift == nil {
		eval.hard(models.ReasonTargetNotFound)
		return
	}
	if input.CounterpartShift == nil {
		eval.hard(models.ReasonSwapTargetMissing)
		return
	}

	moved := *input.TargetShift
	moved.OwnerID = input.CounterpartShift.OwnerID
	counterpart := *input.CounterpartShift
	counterpart.OwnerID = input.TargetShift.OwnerID

	exclude := map[string]struct{}{
		input.TargetShift.ID:      {},
		input.CounterpartShift.ID: {},
	}

	for _, candidate := range []struct {
		shift       models.Shift
		destination []models.Shift
	}{
		{moved, input.CounterpartOwnerShifts},
		{counterpart, input.OwnerShifts},
	} {
		projected, ok := shiftRange(candidate.shift.StartTime, candidate.shift.EndTime)
		if !ok {
			eval.hard(models.ReasonMalformedRange)
			continue
		}
		resulting := resultingShift{
			ownerID: candidate.shift.OwnerID,
			day:     dayKey(candidate.shift.Date),
			clock:   projected,
		}
		d.checkCommitted(eval, resulting, candidate.destination, exclude)
		d.checkExternal(eval, resulting, input.ExternalEvents, nil)
	}
}

func (d ConflictDetector) checkCommitted(eval *evaluation, resulting resultingShift, committed []models.Shift, exclude map[string]struct{}) {
	for i := range committed {
		existing := &committed[i]
		if _, skip := exclude[existing.ID]; skip {
			continue
		}
		if existing.OwnerID != resulting.ownerID || dayKey(existing.Date) != resulting.day {
			continue
		}
		existingRange, ok := shiftRange(existing.StartTime, existing.EndTime)
		if !ok {
			// A committed shift with an unparsable range cannot be compared;
			// surface the collision as hard rather than wave it through.
			eval.hardWith(models.ReasonMalformedRange, existing.ID)
			continue
		}
		if resulting.clock.allDay && existingRange.allDay {
			if !d.AllowMultipleAllDay {
				eval.hardWith(models.ReasonAllDayDuplicate, existing.ID)
			}
			continue
		}
		if clockOverlap(resulting.clock, existingRange) {
			eval.hardWith(models.ReasonOverlap, existing.ID)
		}
	}
}

func (d ConflictDetector) checkExternal(eval *evaluation, resulting resultingShift, events []models.ExternalEvent, mirrorRef *string) {
	for i := range events {
		event := &events[i]
		if event.OwnerID != resulting.ownerID || dayKey(event.Date) != resulting.day {
			continue
		}
		// A sync proposal mirroring this very event must not conflict with
		// its own source.
		if mirrorRef != nil && event.ExternalID == *mirrorRef {
			continue
		}
		eventRange, ok := shiftRange(event.StartTime, event.EndTime)
		if !ok {
			continue
		}
		if resulting.clock.allDay || eventRange.allDay {
			continue
		}
		if clockOverlap(resulting.clock, eventRange) {
			eval.soft(models.ReasonExternalEventOverlap)
		}
	}
}

// resultingShift is the projected owner/day/clock a proposal would commit.
type resultingShift struct {
	ownerID string
	day     string
	clock   clockRange
}

// projectShift applies the payload over the optional current shift and
// returns the projected state, or ok=false when the range is malformed.
func projectShift(payload models.ShiftPayload, current *models.Shift) (resultingShift, bool) {
	var result resultingShift

	ownerID := payload.OwnerID
	if ownerID == "" && current != nil {
		ownerID = current.OwnerID
	}
	if ownerID == "" {
		return result, false
	}

	day := payload.Date
	if day == "" && current != nil {
		day = dayKey(current.Date)
	}
	parsedDay, err := time.Parse("2006-01-02", day)
	if err != nil {
		return result, false
	}

	clock, ok := shiftRange(payload.StartTime, payload.EndTime)
	if !ok {
		return result, false
	}

	result.ownerID = ownerID
	result.day = dayKey(parsedDay)
	result.clock = clock
	return result, true
}

// clockRange is a half-open [start, end) pair of minutes past midnight.
// allDay ranges carry no clock and only collide on date identity.
type clockRange struct {
	start  int
	end    int
	allDay bool
}

// shiftRange parses "HH:MM" bounds into a clock range. Both nil means
// all-day; a single nil bound, unparsable clock, or empty/negative span is
// malformed.
func shiftRange(start, end *string) (clockRange, bool) {
	if start == nil && end == nil {
		return clockRange{allDay: true}, true
	}
	if start == nil || end == nil {
		return clockRange{}, false
	}
	startMin, err := parseClock(*start)
	if err != nil {
		return clockRange{}, false
	}
	endMin, err := parseClock(*end)
	if err != nil {
		return clockRange{}, false
	}
	if startMin >= endMin {
		return clockRange{}, false
	}
	return clockRange{start: startMin, end: endMin}, true
}

func parseClock(raw string) (int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}

// clockOverlap compares two half-open ranges. All-day ranges never overlap on
// the clock; their collision is decided on date identity by the caller.
func clockOverlap(a, b clockRange) bool {
	if a.allDay || b.allDay {
		return false
	}
	return a.start < b.end && b.start < a.end
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// evaluation accumulates reasons and conflicting ids during one Evaluate run.
type evaluation struct {
	hardHit  bool
	softHit  bool
	reasons  []models.ReasonCode
	shiftIDs []string
}

func (e *evaluation) hard(reason models.ReasonCode) {
	e.hardHit = true
	e.addReason(reason)
}

func (e *evaluation) hardWith(reason models.ReasonCode, shiftID string) {
	e.hardHit = true
	e.addReason(reason)
	e.addShift(shiftID)
}

func (e *evaluation) soft(reason models.ReasonCode) {
	e.softHit = true
	e.addReason(reason)
}

func (e *evaluation) addReason(reason models.ReasonCode) {
	for _, existing := range e.reasons {
		if existing == reason {
			return
		}
	}
	e.reasons = append(e.reasons, reason)
}

func (e *evaluation) addShift(shiftID string) {
	for _, existing := range e.shiftIDs {
		if existing == shiftID {
			return
		}
	}
	e.shiftIDs = append(e.shiftIDs, shiftID)
}

func (e *evaluation) verdict() models.ConflictVerdict {
	status := models.VerdictClean
	if e.softHit {
		status = models.VerdictSoftConflict
	}
	if e.hardHit {
		status = models.VerdictHardConflict
	}
	return models.ConflictVerdict{
		Status:              status,
		ConflictingShiftIDs: e.shiftIDs,
		ReasonCodes:         e.reasons,
	}
}
