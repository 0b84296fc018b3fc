package service

import (
	"context"

	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/events"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/metrics"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// Dispatch records that a case was sent to channel. The channel is checked
// before anything else so an invalid request never writes a row.
func (s *TriageService) Dispatch(ctx context.Context, caseID int64, channel models.DispatchChannel, recipients []string) (*models.Dispatch, error) {
	if !channel.Valid() {
		return nil, invalidf("invalid channel")
	}
	if _, err := s.repo.GetCase(ctx, caseID); err != nil {
		return nil, err
	}

	d := &models.Dispatch{
		CaseID:     caseID,
		Channel:    channel,
		Recipients: append([]string{}, recipients...),
		SentAt:     s.now(),
	}
	if err := s.repo.CreateDispatch(ctx, d); err != nil {
		return nil, err
	}
	metrics.DispatchesRecorded.WithLabelValues(string(channel)).Inc()

	s.audit(ctx, "case.dispatch", "case", caseID, map[string]any{
		"dispatch_id": d.ID,
		"channel":     string(channel),
		"recipients":  d.Recipients,
	})

	if err := s.events.PublishCaseDispatched(ctx, &events.CaseDispatchedEvent{
		DispatchID: d.ID,
		CaseID:     caseID,
		Channel:    string(channel),
		Recipients: d.Recipients,
		SentAt:     d.SentAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish dispatch event", logging.CaseID(caseID), logging.Error(err))
	}

	s.logger.InfoContext(ctx, "case dispatched",
		logging.CaseID(caseID),
		logging.Channel(string(channel)))
	return d, nil
}
